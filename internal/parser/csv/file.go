package csv

import (
	"bufio"
	"fmt"
	"os"

	"tablekit/internal/schema"
	"tablekit/internal/table"
)

// readBufSize follows the multi-GB-input sizing used across the loaders.
const readBufSize = 1 << 20

// ParseFile opens path and parses it with Parse. The file is read once,
// sequentially, behind a large buffered reader and a kernel readahead hint.
func (p *Parser) ParseFile(path string, c *schema.Contract) (*table.Table, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close()

	adviseSequential(f)
	return p.Parse(bufio.NewReaderSize(f, readBufSize), c)
}
