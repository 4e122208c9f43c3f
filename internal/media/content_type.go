package media

import "strings"

// FromContentType classifies remote content. The header wins over the
// extension, except where only the path can tell the variant apart.
func FromContentType(p, contentType string) Type {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	byPath := FromPath(p)
	switch mime {
	case "":
		return byPath
	case "application/typescript", "text/typescript", "video/vnd.dlna.mpeg-tts",
		"video/mp2t", "application/x-typescript":
		switch byPath {
		case Tsx, Mts, Cts, Dts, Dmts, Dcts:
			return byPath
		}
		return TypeScript
	case "application/javascript", "text/javascript", "application/ecmascript",
		"text/ecmascript", "application/x-javascript", "application/node":
		switch byPath {
		case Jsx, Mjs, Cjs:
			return byPath
		case Tsx:
			return Jsx
		}
		return JavaScript
	case "text/jsx":
		return Jsx
	case "text/tsx":
		return Tsx
	case "application/json", "text/json":
		return Json
	case "application/wasm":
		return Wasm
	case "text/plain", "application/octet-stream":
		return byPath
	default:
		return Unknown
	}
}

// FromHeaders classifies using the content-type header if present.
func FromHeaders(p string, headers map[string]string) Type {
	for k, v := range headers {
		if strings.EqualFold(k, "content-type") {
			return FromContentType(p, v)
		}
	}
	return FromPath(p)
}
