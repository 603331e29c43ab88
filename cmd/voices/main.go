package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/voxkit/edgetts/internal/auth"
	"github.com/voxkit/edgetts/internal/logging"
	"github.com/voxkit/edgetts/internal/voices"
)

func main() {
	locale := flag.String("locale", "", "Only show voices for this locale, e.g. en-US")
	gender := flag.String("gender", "", "Only show voices with this gender")
	flag.Parse()

	if err := logging.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	logging.SetTraceID(logging.NewTraceID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracker := auth.NewSkewTracker()
	client := voices.NewClient(auth.NewGenerator(tracker), tracker)
	catalog, err := client.List(ctx)
	if err != nil {
		logging.Fatalf("list voices failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHORT NAME\tGENDER\tLOCALE\tPERSONALITIES")
	for _, v := range catalog {
		if *locale != "" && !strings.EqualFold(v.Locale, *locale) {
			continue
		}
		if *gender != "" && !strings.EqualFold(v.Gender, *gender) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			v.ShortName, v.Gender, v.Locale,
			strings.Join(v.VoiceTag.VoicePersonalities, ", "))
	}
	if err := w.Flush(); err != nil {
		logging.Errorf("flush output failed: %v", err)
	}
}
