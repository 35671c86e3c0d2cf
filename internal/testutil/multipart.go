package testutil

import (
	"bytes"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// PNGBytes starts with the PNG signature, which is all content sniffing needs.
var PNGBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

// MultipartBody encodes a single file field and returns the body and its
// content type.
func MultipartBody(t testing.TB, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// FileHeader builds the *multipart.FileHeader a handler would receive.
func FileHeader(t testing.TB, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	body, contentType := MultipartBody(t, "image", filename, data)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(10 << 20)
	require.NoError(t, err)
	require.NotEmpty(t, form.File["image"])
	return form.File["image"][0]
}
