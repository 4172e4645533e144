// Command records prints the retirement leaderboard from the game database.
//
// It reads the same SQLite database the game server writes, so it can be run
// against a live server or offline against a copied database file.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/fetchworks/lostandfound/game/records"
)

func main() {
	cmd := &cli.Command{
		Name:  "records",
		Usage: "print the lost-and-found retirement leaderboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the records database",
				Value:   "records.db",
				Sources: cli.EnvVars("GAME_DB_URL"),
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: "offset into the leaderboard",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "max-items",
				Usage: "page size, at most 100",
				Value: records.DefaultMaxItems,
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	repo, err := records.Open(cmd.String("db"))
	if err != nil {
		return err
	}
	defer repo.Close()

	list, err := repo.PlayersScore(ctx, int(cmd.Int("start")), int(cmd.Int("max-items")))
	if err != nil {
		return err
	}

	printLeaderboard(cmd.Writer, int(cmd.Int("start")), list)
	return nil
}

// printLeaderboard renders one row per retired player, best results first.
func printLeaderboard(w io.Writer, start int, list []records.Record) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No retired players yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSCORE\tPLAY TIME")
	for i, rec := range list {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", start+i+1, rec.Name, rec.Score, rec.PlayTime)
	}
	tw.Flush()
}
