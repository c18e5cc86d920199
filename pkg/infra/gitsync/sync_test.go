package gitsync_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stevedore/pkg/infra/gitsync"
)

type call struct {
	dir  string
	args string
}

// fakeRunner records every invocation and answers from a table keyed
// by the git subcommand.
type fakeRunner struct {
	calls   []call
	outputs map[string]string
	errs    map[string]error
}

func (r *fakeRunner) Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, call{dir: dir, args: key})

	for sub, err := range r.errs {
		if strings.Contains(key, sub) {
			return r.outputs[sub], err
		}
	}
	for sub, out := range r.outputs {
		if strings.Contains(key, sub) {
			return out, nil
		}
	}
	return "", nil
}

func TestAdvance_Success(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"fetch": "From github.com:acme/svc\n * branch main -> FETCH_HEAD",
		"merge": "Updating 1a2b3c..4d5e6f\nFast-forward",
	}}
	syncer := gitsync.New(runner)

	result := syncer.Advance(context.Background(), "/srv/apps/svc", "main")

	gt.Value(t, result.Success).Equal(true)
	gt.String(t, result.Message).Contains("Fast-forward")

	// The path is registered as trusted before anything else runs.
	gt.Number(t, len(runner.calls)).Equal(3)
	gt.String(t, runner.calls[0].args).Contains("safe.directory /srv/apps/svc")
	gt.String(t, runner.calls[1].args).Contains("fetch origin main")
	gt.String(t, runner.calls[2].args).Contains("merge --ff-only FETCH_HEAD")
}

func TestAdvance_FetchFailureIsTerminal(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"fetch": "fatal: could not read from remote repository",
		},
		errs: map[string]error{
			"fetch": errors.New("exit status 128"),
		},
	}
	syncer := gitsync.New(runner)

	result := syncer.Advance(context.Background(), "/srv/apps/svc", "main")

	gt.Value(t, result.Success).Equal(false)
	// The tool's diagnostic text is kept verbatim.
	gt.String(t, result.Message).Contains("could not read from remote repository")

	// Merge is never attempted after a failed fetch.
	for _, c := range runner.calls {
		if strings.Contains(c.args, "merge") {
			t.Error("merge was attempted after fetch failure")
		}
	}
}

func TestAdvance_MergeFailure(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"merge": "fatal: Not possible to fast-forward, aborting.",
		},
		errs: map[string]error{
			"merge": errors.New("exit status 128"),
		},
	}
	syncer := gitsync.New(runner)

	result := syncer.Advance(context.Background(), "/srv/apps/svc", "main")

	gt.Value(t, result.Success).Equal(false)
	gt.String(t, result.Message).Contains("Not possible to fast-forward")
}

func TestAdvance_TrustRegistrationFailureIsIgnored(t *testing.T) {
	runner := &fakeRunner{
		errs: map[string]error{
			"safe.directory": errors.New("exit status 1"),
		},
	}
	syncer := gitsync.New(runner)

	result := syncer.Advance(context.Background(), "/srv/apps/svc", "main")

	// The environmental quirk never fails the sync by itself.
	gt.Value(t, result.Success).Equal(true)
}

func TestAdvance_NoOutputFallsBackToError(t *testing.T) {
	runner := &fakeRunner{
		errs: map[string]error{
			"fetch": errors.New("command timed out"),
		},
	}
	syncer := gitsync.New(runner)

	result := syncer.Advance(context.Background(), "/srv/apps/svc", "main")

	gt.Value(t, result.Success).Equal(false)
	gt.String(t, result.Message).Contains("timed out")
}
