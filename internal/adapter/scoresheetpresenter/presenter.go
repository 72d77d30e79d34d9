package scoresheetpresenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// Presenter writes formatted results and preview images without coupling to the command layer.
type Presenter struct {
	out       io.Writer
	formatter *Formatter
	writeFile func(path string, data []byte) error
}

func NewPresenter(out io.Writer, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(false)
	}
	return &Presenter{
		out:       out,
		formatter: formatter,
		writeFile: func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) },
	}
}

// Process prints the game and stores the preview PNG when previewPath is set.
func (p *Presenter) Process(resp *scoresheetdto.ProcessResponse, previewPath string) error {
	if p == nil {
		return nil
	}
	if _, err := fmt.Fprintln(p.out, p.formatter.Process(resp)); err != nil {
		return err
	}
	if path := strings.TrimSpace(previewPath); path != "" && resp != nil && len(resp.Preview) > 0 {
		if err := p.writeFile(path, resp.Preview); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}
	return nil
}

func (p *Presenter) History(resp *scoresheetdto.HistoryResponse) error {
	if p == nil || resp == nil {
		return nil
	}
	_, err := fmt.Fprintln(p.out, p.formatter.History(resp.Games))
	return err
}

func (p *Presenter) Text(s string) error {
	if p == nil {
		return nil
	}
	_, err := fmt.Fprintln(p.out, s)
	return err
}
