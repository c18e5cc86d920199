package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/stevedore/pkg/cli/config"
	"github.com/m-mizutani/stevedore/pkg/infra/catalog"
	"github.com/m-mizutani/stevedore/pkg/infra/cmdexec"
	"github.com/urfave/cli/v3"
)

func cmdRepos() *cli.Command {
	var deployCfg config.Deploy

	return &cli.Command{
		Name:    "repos",
		Aliases: []string{"r"},
		Usage:   "List managed checkouts and their deployability",
		Flags:   deployCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := deployCfg.LoadFile(); err != nil {
				return err
			}

			cat := catalog.New(deployCfg.Root, cmdexec.New(),
				catalog.WithExcludes(deployCfg.Excludes...),
			)

			records, err := cat.Discover(ctx)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()

			deployable := 0
			for _, rec := range records {
				state := green("deployable")
				if !rec.Deployable {
					state = yellow("no descriptor")
				} else {
					deployable++
				}

				branch := rec.ActiveBranch
				if branch == "" {
					branch = yellow("(detached)")
				}

				fmt.Printf("%-24s %-20s %s\n", rec.Name, branch, state)
			}

			fmt.Printf("\n%d repositories, %d deployable\n", len(records), deployable)
			return nil
		},
	}
}
