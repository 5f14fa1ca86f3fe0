// Package cmd contains the admin commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agrochain/ledger/business/web/errs"
	"github.com/spf13/cobra"
)

// client talks to the node's v1 api.
type client struct {
	url  string
	http *http.Client
}

// NewRoot constructs the admin command tree.
func NewRoot(build string) *cobra.Command {
	c := client{
		http: &http.Client{Timeout: 5 * time.Minute},
	}

	root := &cobra.Command{
		Use:          "admin",
		Short:        "Administer an agricultural supply chain ledger node",
		Version:      build,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.url, "url", "u", "http://localhost:8080", "Url of the node.")

	root.AddCommand(
		submitCmd(&c),
		mineCmd(&c),
		productCmd(&c),
		historyCmd(&c),
		statsCmd(&c),
		validateCmd(&c),
		exportCmd(&c),
		importCmd(&c),
		genidCmd(),
	)

	return root
}

// do performs the request and decodes the response into out when provided.
// Error responses from the node are returned as errors.
func (c *client) do(method string, path string, body io.Reader, out any) error {
	req, err := http.NewRequest(method, c.url+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("node responded %d", resp.StatusCode)
		}
		if len(er.Fields) > 0 {
			return fmt.Errorf("%s: %v", er.Error, er.Fields)
		}
		return fmt.Errorf("%s", er.Error)
	}

	if out == nil {
		return nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*raw = data
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// printJSON writes the value as indented json.
func printJSON(w io.Writer, v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
