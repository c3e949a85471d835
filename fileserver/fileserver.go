// Package fileserver serves a directory tree read-only.
package fileserver

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// DefaultContentType is sent for regular files whose extension is unknown.
const DefaultContentType = "application/octet-stream"

// allowedMethods is sent in the Allow header of 405 responses.
const allowedMethods = "GET, HEAD"

// conditionalHeaders are dropped from requests: clients always get the
// full, current content instead of 304 or 412.
var conditionalHeaders = []string{
	"If-Modified-Since",
	"If-None-Match",
	"If-Unmodified-Since",
	"If-Match",
}

// FileServer maps URL paths onto files under a document root.
type FileServer struct {
	root  http.FileSystem
	files http.Handler
}

// New creates a FileServer rooted at dir. URL paths are cleaned before
// lookup so ".." segments can't leave dir.
func New(dir string) *FileServer {
	root := http.Dir(dir)
	return &FileServer{
		root:  root,
		files: http.FileServer(root),
	}
}

func (s *FileServer) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", allowedMethods)
		http.Error(rw, "Only GET and HEAD requests are supported", http.StatusMethodNotAllowed)
		return
	}

	for _, h := range conditionalHeaders {
		req.Header.Del(h)
	}

	if ctype := s.contentType(req.URL.Path); ctype != "" {
		rw.Header().Set("Content-Type", ctype)
	}
	s.files.ServeHTTP(rw, req)
}

// contentType returns DefaultContentType when urlPath names a regular file
// that mime has no type for, and "" otherwise. Directories, missing files
// and known extensions are left to the file handler.
func (s *FileServer) contentType(urlPath string) string {
	name := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") || mime.TypeByExtension(path.Ext(name)) != "" {
		return ""
	}

	f, err := s.root.Open(name)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return DefaultContentType
}
