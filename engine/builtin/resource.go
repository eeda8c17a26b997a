// SPDX-License-Identifier: EPL-2.0

package builtin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

// input is an opened resource positioned at its first byte.
type input struct {
	r        io.Reader // io.Closer too when there is something to release
	head     []byte
	seekable bool
	// size in bytes, NotSpecified unless the resource is a local file.
	size int64
}

func (in input) Close() error {
	if c, ok := in.r.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// bufferedBody keeps an HTTP body closable behind the bufio.Reader used to
// sniff it.
type bufferedBody struct {
	*bufio.Reader
	io.Closer
}

// localPath returns the file path of resource, or false for remote URLs.
func localPath(resource string) (string, bool, error) {
	u, err := url.Parse(resource)
	if err != nil || len(u.Scheme) <= 1 {
		// Plain paths, including Windows drive letters.
		return resource, true, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return u.Path, true, nil
	case "http", "https":
		return "", false, nil
	default:
		return "", false, fmt.Errorf("protocol not found: %s", u.Scheme)
	}
}

func (e *Engine) openInput(op, resource string) (input, error) {
	p, local, err := localPath(resource)
	if err != nil {
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	if local {
		return openFile(op, resource, p)
	}

	return e.openHTTP(op, resource)
}

func openFile(op, resource, p string) (input, error) {
	f, err := os.Open(p)
	if err != nil {
		kind := engine.KindIOFailure
		if errors.Is(err, fs.ErrNotExist) {
			kind = engine.KindResourceNotFound
		}

		return input{}, engine.NewError(kind, op, resource, "", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	if st.IsDir() {
		f.Close()
		return input{}, engine.NewError(engine.KindResourceNotFound, op, resource, "is a directory", nil)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	return input{r: f, head: head[:n], seekable: true, size: st.Size()}, nil
}

func (e *Engine) openHTTP(op, resource string) (input, error) {
	resp, err := e.client.Get(resource)
	if err != nil {
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return input{}, engine.NewError(engine.KindResourceNotFound, op, resource, resp.Status, nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, resp.Status, nil)
	}

	in, err := sniffReader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return input{}, engine.NewError(engine.KindIOFailure, op, resource, "", err)
	}

	return in, nil
}

// sniffReader peeks at the start of a forward-only reader without consuming
// it.
func sniffReader(r io.Reader) (input, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return input{}, err
	}

	in := input{r: br, head: slices.Clone(head), size: format.NotSpecified}
	if c, ok := r.(io.Closer); ok {
		in.r = bufferedBody{Reader: br, Closer: c}
	}

	return in, nil
}
