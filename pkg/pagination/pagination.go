package pagination

// Window bounds the page size of one list endpoint.
type Window struct {
	Default int
	Max     int
}

// Clamp applies the window to a requested page size. Zero or negative
// requests get the default.
func (w Window) Clamp(requested int) int {
	if requested <= 0 {
		return w.Default
	}
	if requested > w.Max {
		return w.Max
	}
	return requested
}

// Params holds the page of a list request.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// New builds Params from raw query values.
func New(limit, offset int, w Window) Params {
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: w.Clamp(limit), Offset: offset}
}
