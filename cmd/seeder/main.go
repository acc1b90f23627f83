package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/storyloom/distill"
	"github.com/storyloom/distill/config"
	"github.com/storyloom/distill/scheduler"
)

// Sample documents for trying list, show, and search against a populated
// store. Seeding runs fallback-only so it works offline; resubmit with a
// capability host configured to get AI artifacts and embeddings.
var samples = []struct {
	title string
	text  string
}{
	{
		title: "Community meeting notes, March",
		text: `The council opened with updates on the language nest. Enrollment doubled since January and two more speakers volunteered for the Saturday sessions. "We finally have more learners than chairs," said Elder Marian. The group agreed to move sessions to the band hall.

Water delivery remains the biggest concern on the east road. Three households reported missed deliveries in February. The works committee will track the schedule for a month and report back. "If the truck cannot make the hill in winter, we need a tank up there," said Joseph.`,
	},
	{
		title: "Youth program update",
		text: `Attendance at the after-school program held steady at twenty students. The coding club finished their first project, a photo archive of the harvest camp. Two students presented it at the regional gathering.

The program needs a second supervisor for the spring hikes. Without one, the outdoor sessions cannot run. The coordinator flagged this as the main barrier for next quarter.`,
	},
	{
		title: "Harvest camp planning",
		text: `The harvest camp returns to the north site this fall. Families asked for a longer stay, ten days instead of seven. The planning group costed the extra days at a manageable level if the school lends the kitchen trailer again.

Elder Thomas offered to lead the net repair workshop. "The nets teach patience before they teach fishing," he said. Sign-up sheets go out after the spring feast.`,
	},
	{
		title: "Housing survey summary",
		text: `Forty-one households answered the housing survey. Overcrowding came up in a third of responses, mostly in the river flats. Mold and drafty windows were the most reported repair needs.

The survey found strong interest in a local repair crew. Training two residents in weatherization would cover the most common requests and keep the work in the community.`,
	},
	{
		title: "Water quality field report",
		text: `Samples from the east well came back clean for the fourth month running. The creek intake still shows turbidity spikes after heavy rain. The operator recommends keeping the boil advisory for creek users until the new filter housing arrives.

Parts are on order and the supplier quoted six weeks. Installation takes two days and can happen without interrupting the well supply.`,
	},
}

var (
	dbPath  = flag.String("db", ".distill/db", "Path to the database directory")
	timeout = flag.Duration("timeout", 2*time.Minute, "Time allowed for the whole seeding run")
)

func main() {
	flag.Parse()

	// Fallback-only keeps seeding fast and offline
	enabled := false
	cfg := &config.Config{}
	cfg.AI.Enabled = &enabled

	p, err := distill.New(*dbPath, distill.WithConfig(cfg))
	if err != nil {
		panic(err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	jobIDs := make([]string, 0, len(samples)+flag.NArg())
	for _, sample := range samples {
		jobID, err := p.SubmitDocument(ctx, sample.title, sample.text)
		if err != nil {
			panic(err)
		}
		jobIDs = append(jobIDs, jobID)
	}

	// Any file arguments are seeded too
	for _, path := range flag.Args() {
		jobID, err := p.SubmitFile(ctx, path)
		if err != nil {
			panic(err)
		}
		jobIDs = append(jobIDs, jobID)
	}

	for _, jobID := range jobIDs {
		info, err := waitForJob(ctx, p, jobID)
		if err != nil {
			panic(err)
		}
		if info.Status == scheduler.StatusFailed {
			fmt.Printf("job %s failed: %v\n", info.Id, info.Err)
			continue
		}
		fmt.Printf("seeded document %d\n", info.DocumentId)
	}
}

// waitForJob polls until the job and any chained job reach a terminal state.
func waitForJob(ctx context.Context, p *distill.Pipeline, jobID string) (distill.JobInfo, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		info, err := p.Status(jobID)
		if err != nil {
			return distill.JobInfo{}, err
		}
		switch {
		case info.Status == scheduler.StatusCompleted && info.NextJob != "":
			jobID = info.NextJob
			continue
		case info.Status == scheduler.StatusCompleted, info.Status == scheduler.StatusFailed:
			return info, nil
		}

		select {
		case <-ctx.Done():
			return distill.JobInfo{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
