// pkider-inspect prints the DER structure of a certificate, CSR or any other
// DER or PEM encoded document.
package main

import (
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/letsencrypt/pkider/cmd"
	"github.com/letsencrypt/pkider/der"
)

func main() {
	input := flag.String("in", "-", "File to inspect, - for stdin")
	flag.Parse()

	var data []byte
	var err error
	if *input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*input)
	}
	cmd.FailOnError(err, "Reading input")

	blocks := derBlocks(data)
	for i, b := range blocks {
		if len(blocks) > 1 {
			fmt.Printf("# %s %d\n", b.label, i)
		}
		dump, err := der.Inspect(b.der)
		cmd.FailOnError(err, "Decoding DER")
		fmt.Print(dump)
	}
}

type block struct {
	label string
	der   []byte
}

// derBlocks returns every PEM block of data, or data itself when it holds
// no PEM.
func derBlocks(data []byte) []block {
	var blocks []block
	rest := data
	for {
		var p *pem.Block
		p, rest = pem.Decode(rest)
		if p == nil {
			break
		}
		blocks = append(blocks, block{label: p.Type, der: p.Bytes})
	}
	if len(blocks) == 0 {
		blocks = append(blocks, block{label: "DER", der: data})
	}
	return blocks
}
