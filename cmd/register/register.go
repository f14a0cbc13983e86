package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout/internal/domain/checkout"
	"github.com/xenking/checkout/internal/storage/file"
)

var rule = strings.Repeat("-", 80)

// Quoter prices a basket.
type Quoter interface {
	Quote(ctx context.Context, req checkout.QuoteRequest) (*checkout.Receipt, error)
}

type register struct {
	quoter Quoter
	out    io.Writer
}

func newRegister(q Quoter, out io.Writer) *register {
	return &register{quoter: q, out: out}
}

// interactive prompts for basket files until Q or end of input.
func (r *register) interactive(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "Welcome to GroceryCo Checkout")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, "Filename (or Q to quit) > ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "q"):
			return nil
		}
		r.priceFile(ctx, input)
	}
}

// priceFile prices the basket in name and prints the receipt. It reports
// whether the sale was priced.
func (r *register) priceFile(ctx context.Context, name string) bool {
	items, err := readBasket(name)
	if err != nil {
		fmt.Fprintf(r.out, "Error reading input products from '%s'.\n", name)
		fmt.Fprintln(r.out, err)
		return false
	}

	receipt, err := r.quoter.Quote(ctx, checkout.QuoteRequest{Items: items})
	if err != nil {
		r.printError(name, err)
		return false
	}

	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Sale from %s\n", name)
	fmt.Fprintln(r.out, rule)
	if _, err := receipt.WriteTo(r.out); err != nil {
		return false
	}
	return true
}

func (r *register) printError(name string, err error) {
	if errors.Is(err, checkout.ErrEmptyItems) {
		fmt.Fprintf(r.out, "No products found in '%s'.\n", name)
		return
	}
	var qtyErr *checkout.InvalidQuantityError
	if errors.As(err, &qtyErr) {
		fmt.Fprintf(r.out, "Too many units of '%s' in '%s', at most %d per sale.\n",
			qtyErr.ProductID, name, checkout.MaxQuantity)
		return
	}

	var fileErr *file.Error
	if errors.As(err, &fileErr) {
		fmt.Fprintf(r.out, "Error reading %s.\n", fileErr.Catalog)
	} else {
		fmt.Fprintln(r.out, "Error pricing sale.")
	}
	fmt.Fprintln(r.out, err)
	fmt.Fprintln(r.out, "Please have a system administrator correct the error.")
}

// readBasket reads one product id per line, skipping blank lines.
func readBasket(name string) ([]checkout.Item, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var items []checkout.Item
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		items = append(items, checkout.Item{ProductID: id, Quantity: 1})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return items, nil
}
