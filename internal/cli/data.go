package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dukerupert/tally/internal/agegrade"
)

type ExportCmd struct {
	Out string `short:"o" help:"Write the export to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	blob, err := ctx.Logs.ExportBlob()
	if err != nil {
		return err
	}
	if c.Out == "" {
		_, err := ctx.Out.Write(append(blob, '\n'))
		return err
	}
	if err := os.WriteFile(c.Out, blob, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Exported to %s\n", c.Out)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Export file to import. Replaces all data." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *Context) error {
	blob, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	if err := ctx.Logs.ImportBlob(ctx.Ctx, blob); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Imported %d members\n", len(ctx.Logs.Members()))
	return nil
}

type MembersCmd struct{}

func (c *MembersCmd) Run(ctx *Context) error {
	members := ctx.Logs.Members()
	if len(members) == 0 {
		fmt.Fprintln(ctx.Out, "No members.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVISIBLE\tTASKS\tSUBTITLE")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n",
			m.ID, m.Name, m.Visible, len(ctx.Logs.Tasks(m.ID)), agegrade.Subtitle(m, ctx.now()))
	}
	return tw.Flush()
}

type ProgressCmd struct {
	Date string `help:"Day to report, YYYY-MM-DD. Defaults to today."`
}

func (c *ProgressCmd) Run(ctx *Context) error {
	date := c.Date
	if date == "" {
		date = ctx.today()
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Date\t%s\n", date)
	for _, m := range ctx.Logs.Members() {
		if !m.Visible {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d%%\n", m.Name, ctx.Logs.MemberProgress(m.ID, date))
	}
	fmt.Fprintf(tw, "Family\t%d%%\n", ctx.Logs.FamilyProgress(date))
	return tw.Flush()
}

// DocsCmd lists the raw documents in local storage.
type DocsCmd struct{}

func (c *DocsCmd) Run(ctx *Context) error {
	docs, err := ctx.Docs.List(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(ctx.Out, "No documents.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVERSION\tSIZE\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
			d.Key, d.Version, d.SizeBytes, d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
