package httputil

import (
	"encoding/json"
	"net/http"
)

const (
	MaxFileSize = 10 << 20 // 10MB
)

func ReadJsonBody(r *http.Request, dst interface{}) error {
	if r.Body == http.NoBody {
		return nil
	}

	d := json.NewDecoder(r.Body)

	return d.Decode(dst)
}
