package uploader

// uploadModelRequest represents a request to upload a model file to the
// canister.
type uploadModelRequest struct {
	GGUFFile string `json:"ggufFile"`
}
