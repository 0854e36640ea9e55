package fetch

import (
	"encoding/base64"
	"strings"

	"github.com/gaurav-prasanna/pagecapture/core"
)

// DecodeDataURI decodes an inline image such as
// data:image/png;base64,iVBORw0KGgo... into an asset named inline.<subtype>.
func DecodeDataURI(src string) (*core.Asset, error) {
	meta, data, ok := strings.Cut(src, ",")
	if !ok {
		return nil, core.Errorf(core.ErrBase64Format, nil, "no comma in data URI")
	}

	bytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, core.Errorf(core.ErrBase64Decode, err, "decoding inline image")
	}

	return &core.Asset{Filename: "inline." + subtype(meta), Data: bytes}, nil
}

// subtype extracts "png" from "data:image/png;base64". Default: "img".
func subtype(meta string) string {
	mime, _, _ := strings.Cut(meta, ";")
	_, sub, ok := strings.Cut(mime, "/")
	if !ok || sub == "" {
		return "img"
	}
	return strings.ReplaceAll(sub, "/", "_")
}
