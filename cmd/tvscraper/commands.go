package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/link"
)

func showsCommand() *cli.Command {
	return &cli.Command{
		Name:  "shows",
		Usage: "list shows with their air and publication dates",
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			lib, backend, err := openLibrary(c, cfg, nil, nil)
			if err != nil {
				return err
			}
			defer backend.Close()

			store := lib.Store()
			shows, err := store.ListShows()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(shows))
			for _, show := range shows {
				seasons, err := store.ShowSeasons(show["id"])
				if err != nil {
					return err
				}
				watched := 0
				for _, s := range seasons {
					if s["status"] == library.StatusWatched {
						watched++
					}
				}
				rows = append(rows, []string{
					show["id"],
					show["title"],
					fmt.Sprintf("%d/%d", watched, len(seasons)),
					show["lastAirDate"],
					show["nextAirDate"],
					show["lastPubDate"],
				})
			}

			fmt.Println(renderTable([]column{
				textColumn("ID"),
				textColumn("Title"),
				countColumn("Watched"),
				timeColumn("Last aired"),
				timeColumn("Next airing"),
				timeColumn("Last published"),
			}, rows))
			fmt.Printf("%s shows\n", humanize.Comma(int64(len(shows))))
			return nil
		},
	}
}

func bestCommand() *cli.Command {
	return &cli.Command{
		Name:  "best",
		Usage: "print the best file of an episode or of every episode of a season",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "episode", Usage: "episode ID"},
			&cli.StringFlag{Name: "season", Usage: "season ID"},
		},
		Action: func(c *cli.Context) error {
			episodeID, seasonID := c.String("episode"), c.String("season")
			if (episodeID == "") == (seasonID == "") {
				return fmt.Errorf("exactly one of --episode or --season is required")
			}

			cfg, err := setup(c)
			if err != nil {
				return err
			}
			lib, backend, err := openLibrary(c, cfg, nil, nil)
			if err != nil {
				return err
			}
			defer backend.Close()

			var files []library.Attrs
			if episodeID != "" {
				f, err := lib.BestFileForEpisode(episodeID)
				if err != nil {
					return err
				}
				if f != nil {
					files = append(files, f)
				}
			} else {
				files, err = lib.BestFilesForSeason(seasonID)
				if err != nil {
					return err
				}
			}

			if len(files) == 0 {
				fmt.Println("no eligible file")
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, bestFileRow(lib.Store(), f))
			}
			fmt.Println(renderTable([]column{
				textColumn("Episode"),
				textColumn("File"),
				sizeColumn("Size"),
				textColumn("Scraper"),
				timeColumn("Published"),
			}, rows))
			return nil
		},
	}
}

func bestFileRow(store *library.Store, f library.Attrs) []string {
	episode := f["episode"]
	if ep, err := store.GetEpisode(f["episode"]); err == nil && ep["n"] != "" {
		episode = ep["n"]
		if title := ep["title"]; title != "" {
			episode += " " + title
		}
	}

	name, size := f["uri"], ""
	if l, err := link.Decode(f["uri"]); err == nil {
		name = l.FileName
		size = strconv.FormatInt(l.Size, 10)
	}

	return []string{
		episode,
		strings.TrimSpace(name),
		size,
		f["scraper"],
		f["pubDate"],
	}
}
