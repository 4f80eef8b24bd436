package main

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/bandgate/bootstrap"
	"github.com/artpar/bandgate/domain/catalog"
	"github.com/spf13/cobra"
)

var concertsCmd = &cobra.Command{
	Use:   "concerts",
	Short: "Publish concerts",
	Long: `Publish concerts as an artist.

Dates are RFC 3339 timestamps or plain YYYY-MM-DD dates.

Examples:
  bandgate concerts create --title="Summer Live" --place="Olympic Hall" \
    --booking-url=https://tickets.example.com --booking-date=2025-07-01 \
    --date=2025-08-15 --date=2025-08-16`,
}

var concertsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a concert",
	RunE:  runConcertsCreate,
}

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "Publish albums",
}

var albumsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an album",
	RunE:  runAlbumsCreate,
}

var (
	concertTitle       string
	concertPlace       string
	concertPoster      string
	concertInformation string
	concertBookingURL  string
	concertBookingDate string
	concertDates       []string

	albumName        string
	albumCover       string
	albumReleaseDate string
	albumDescription string
)

func init() {
	rootCmd.AddCommand(concertsCmd)
	rootCmd.AddCommand(albumsCmd)
	concertsCmd.AddCommand(concertsCreateCmd)
	albumsCmd.AddCommand(albumsCreateCmd)

	concertsCreateCmd.Flags().StringVar(&concertTitle, "title", "", "concert title (required)")
	concertsCreateCmd.Flags().StringVar(&concertPlace, "place", "", "venue (required)")
	concertsCreateCmd.Flags().StringVar(&concertPoster, "poster", "", "poster image URL")
	concertsCreateCmd.Flags().StringVar(&concertInformation, "information", "", "free-form description")
	concertsCreateCmd.Flags().StringVar(&concertBookingURL, "booking-url", "", "ticket booking URL")
	concertsCreateCmd.Flags().StringVar(&concertBookingDate, "booking-date", "", "booking opening date")
	concertsCreateCmd.Flags().StringArrayVar(&concertDates, "date", nil, "performing date (repeatable)")
	concertsCreateCmd.MarkFlagRequired("title")
	concertsCreateCmd.MarkFlagRequired("place")

	albumsCreateCmd.Flags().StringVar(&albumName, "name", "", "album name (required)")
	albumsCreateCmd.Flags().StringVar(&albumCover, "cover", "", "cover image URL")
	albumsCreateCmd.Flags().StringVar(&albumReleaseDate, "release-date", "", "release date")
	albumsCreateCmd.Flags().StringVar(&albumDescription, "description", "", "album description")
	albumsCreateCmd.MarkFlagRequired("name")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func runConcertsCreate(cmd *cobra.Command, args []string) error {
	booking, err := parseDate(concertBookingDate)
	if err != nil {
		return err
	}
	var performing []time.Time
	for _, s := range concertDates {
		d, err := parseDate(s)
		if err != nil {
			return err
		}
		performing = append(performing, d)
	}

	in := catalog.NewConcertInput(concertTitle, concertPlace, booking, performing)
	in.PosterImageURL = concertPoster
	in.Information = concertInformation
	in.BookingURL = concertBookingURL

	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		concert, err := c.Catalog.CreateConcert(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create concert: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), concert)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created concert %d: %s\n", concert.ConcertID, concert.Title)
		return nil
	})
}

func runAlbumsCreate(cmd *cobra.Command, args []string) error {
	in := catalog.AlbumInput{
		Name:          albumName,
		CoverImageURL: albumCover,
		ReleaseDate:   albumReleaseDate,
		Description:   albumDescription,
	}

	return withClient(cmd, func(ctx context.Context, c *bootstrap.Client) error {
		album, err := c.Catalog.CreateAlbum(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create album: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), album)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created album %d: %s\n", album.AlbumID, album.Name)
		return nil
	})
}
