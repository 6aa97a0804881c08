package respcache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/sagarc03/bucketgate"
)

var (
	ErrSerialization   = errors.New("serialization error")
	ErrDeserialization = errors.New("deserialization error")
)

type entry struct {
	StatusCode int
	Header     map[string][]string
	Body       []byte
}

func encode(resp bucketgate.CachedResponse) ([]byte, error) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(entry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return b.Bytes(), nil
}

func decode(data []byte) (bucketgate.CachedResponse, error) {
	var e entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return bucketgate.CachedResponse{}, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return bucketgate.CachedResponse{
		StatusCode: e.StatusCode,
		Header:     e.Header,
		Body:       e.Body,
	}, nil
}
