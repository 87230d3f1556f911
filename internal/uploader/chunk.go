package uploader

// chunkCount returns the number of chunks a payload of n bytes is split into
// with the given chunk size. A zero-length payload has no chunks.
func chunkCount(n, size int) int {
	return (n + size - 1) / size
}

// chunkRange returns the byte range [start, end) of chunk i. All chunks are
// exactly size bytes except the last, which holds the remainder.
func chunkRange(n, size, i int) (int, int) {
	start := i * size
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}
