package fetcher

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSON decodes either a JSON array of T or a single T. Numbers are
// kept as json.Number so large or formatted values are not rounded.
func DecodeJSON[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err == io.EOF {
		return []T{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "json: read input")
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first != '[' {
		var item T
		if err := dec.Decode(&item); err != nil {
			return nil, eris.Wrap(err, "json: decode object")
		}
		return []T{item}, nil
	}

	items := []T{}
	if err := dec.Decode(&items); err != nil {
		return nil, eris.Wrap(err, "json: decode array")
	}
	return items, nil
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
