package batch

import (
	"context"

	"github.com/cryptoseal/cryptoseal/archive"
	"github.com/cryptoseal/cryptoseal/log"
	"github.com/cryptoseal/cryptoseal/offload"
)

// BatchOptions configures one Run call.
type BatchOptions struct {
	// ArchiveOptions is forwarded to every item's Encrypt/Decrypt call.
	ArchiveOptions archive.Options

	// Parallelism bounds how many items run concurrently. Values <= 1
	// process items sequentially on the calling goroutine.
	Parallelism int
}

// Run processes every item through the Archive Façade and returns an
// aggregate report. A single item's failure is captured in its ItemRecord
// and does not abort the batch; only ctx cancellation stops early, in which
// case the unprocessed remainder is reported as failed with ctx's error.
func Run(ctx context.Context, items []BatchItem, passphrase []byte, opts BatchOptions) (*BatchReport, error) {
	for i := range items {
		items[i].assignID()
	}

	runOne := func(ctx context.Context, item BatchItem) (ItemRecord, error) {
		return runItem(ctx, item, passphrase, opts.ArchiveOptions), nil
	}

	var records []ItemRecord
	if opts.Parallelism > 1 {
		fns := make([]func(context.Context) (ItemRecord, error), len(items))
		for i, item := range items {
			item := item
			fns[i] = func(ctx context.Context) (ItemRecord, error) {
				return runOne(ctx, item)
			}
		}
		pool := offload.NewPool[ItemRecord](opts.Parallelism)
		results := pool.Run(ctx, fns)
		records = make([]ItemRecord, len(results))
		for i, res := range results {
			records[i] = res.Value
		}
	} else {
		records = make([]ItemRecord, 0, len(items))
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				records = append(records, ItemRecord{
					ID:         item.ID,
					InputPath:  item.InputPath,
					OutputPath: item.OutputPath,
					Succeeded:  false,
					Error:      err.Error(),
				})
				continue
			}
			rec, _ := runOne(ctx, item)
			records = append(records, rec)
		}
	}

	report := &BatchReport{Items: records}
	for _, rec := range records {
		if rec.Succeeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func runItem(ctx context.Context, item BatchItem, passphrase []byte, archiveOpts archive.Options) ItemRecord {
	rec := ItemRecord{
		ID:         item.ID,
		InputPath:  item.InputPath,
		OutputPath: item.OutputPath,
	}

	var res *archive.Result
	var err error
	switch item.Mode {
	case ModeDecrypt:
		res, err = archive.Decrypt(ctx, item.InputPath, item.OutputPath, passphrase, archiveOpts)
	default:
		res, err = archive.Encrypt(ctx, item.InputPath, item.OutputPath, passphrase, archiveOpts)
	}
	if err != nil {
		log.Error(err).Field("input", item.InputPath).Message("batch item failed")
		rec.Error = err.Error()
		return rec
	}

	rec.Succeeded = true
	rec.OriginalSize = res.OriginalSize
	rec.BytesWritten = res.BytesWritten
	return rec
}
