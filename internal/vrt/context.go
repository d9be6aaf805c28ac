package vrt

// Context is the payload body of a Context or Extension-Context packet: a
// CIF0/CIF1(/CIF7) indicator-and-data-field block and nothing else. A
// Query-Acknowledge command body shares this exact layout.
type Context struct {
	CIFBlock
}

func decodeContext(b []byte, features Features) (Context, int, error) {
	block, n, err := decodeCIFBlock(b, features)
	if err != nil {
		return Context{}, 0, err
	}
	return Context{CIFBlock: block}, n, nil
}

func (c Context) encode() ([]byte, error) {
	return c.CIFBlock.encode()
}

func (c Context) sizeWords() int {
	return c.CIFBlock.sizeWords()
}
