package httpkit

import "net/http"

// Get mounts a Call handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, Call(h)) }

// Post mounts a Call handler under POST
func Post(r Router, path string, h func(*http.Request) (any, error)) { r.Post(path, Call(h)) }

// Put mounts a Call handler under PUT
func Put(r Router, path string, h func(*http.Request) (any, error)) { r.Put(path, Call(h)) }

// PostText mounts a Text handler under POST
func PostText(r Router, path string, h func(*http.Request, string) (any, error)) {
	r.Post(path, Text(h))
}

// PutText mounts a Text handler under PUT
func PutText(r Router, path string, h func(*http.Request, string) (any, error)) {
	r.Put(path, Text(h))
}
