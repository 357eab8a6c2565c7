package outfit

type UnlockResponse struct {
	Unlock  *Unlock `json:"unlock"`
	Balance int64   `json:"balance"`
}
