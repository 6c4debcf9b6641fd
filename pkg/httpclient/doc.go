// Package httpclient provides a typed Go client for the upload REST API.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api/uploader")
//	if err != nil {
//	   panic(err)
//	}
//
// Then use the client to upload and manage objects:
//
//	// Stream a file into the "media" backend
//	result, err := client.PutObject(ctx, "media", "photos/cat.jpg", f, "image/jpeg")
package httpclient
