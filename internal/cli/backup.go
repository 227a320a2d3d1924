package cli

import (
	"fmt"
	"text/tabwriter"
)

type BackupCreateCmd struct {
	Passphrase string `help:"Encryption passphrase. Defaults to the configured one." env:"TALLY_BACKUP_PASSPHRASE"`
}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	id, err := ctx.Backups.RunNow(ctx.Ctx, c.Passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Backup %d uploaded\n", id)
	return nil
}

type BackupListCmd struct {
	Limit int `help:"Maximum number of backups to show." default:"20"`
}

func (c *BackupListCmd) Run(ctx *Context) error {
	backups, err := ctx.Backups.List(c.Limit)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSIZE\tCREATED\tFILE")
	for _, b := range backups {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			b.ID, b.Status, b.SizeBytes, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Filename)
	}
	return tw.Flush()
}

type BackupRestoreCmd struct {
	ID         int64  `arg:"" help:"Backup id to restore. Replaces all data."`
	Passphrase string `help:"Decryption passphrase. Defaults to the configured one." env:"TALLY_BACKUP_PASSPHRASE"`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	if err := ctx.Backups.Restore(ctx.Ctx, c.ID, c.Passphrase); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Backup %d restored\n", c.ID)
	return nil
}
