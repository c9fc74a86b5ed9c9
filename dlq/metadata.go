package dlq

import (
	"math"

	"github.com/raynmakers/vigil/job"
)

// MetadataConfig sets the cost model used by the triage metadata builders.
type MetadataConfig struct {
	// UnitsPerChannel is the platform API quota cost of scraping one channel.
	UnitsPerChannel int

	// UnitsPerVideo is the platform API quota cost of fetching one video.
	UnitsPerVideo int

	// PerVideoRateUSD is the flat transcription cost per video.
	PerVideoRateUSD float64

	// DefaultSummaryPlatform is assumed when a summarize job names no
	// target platforms.
	DefaultSummaryPlatform string
}

// DefaultMetadataConfig returns the stock cost model.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		UnitsPerChannel:        100,
		UnitsPerVideo:          1,
		PerVideoRateUSD:        0.65,
		DefaultSummaryPlatform: "slack",
	}
}

type metadataFunc func(cfg MetadataConfig, typ job.Type, inputs map[string]any) map[string]any

// metadataBuilders maps each concrete job type to its triage metadata
// builder. Types absent here fall through to a minimal generic map.
var metadataBuilders = map[job.Type]metadataFunc{
	job.TypeChannelScrape:    scrapeMetadata,
	job.TypeSingleVideoFetch: fetchMetadata,
	job.TypeSingleTranscribe: transcribeMetadata,
	job.TypeBatchTranscribe:  transcribeMetadata,
	job.TypeSingleSummarize:  summarizeMetadata,
	job.TypeBatchSummarize:   summarizeMetadata,
}

// BuildMetadata assembles type-specific triage metadata from the failed
// job's inputs. Missing or malformed inputs degrade to zero-valued
// metadata; building never fails.
func BuildMetadata(cfg MetadataConfig, typ job.Type, inputs map[string]any) map[string]any {
	if build, ok := metadataBuilders[typ]; ok {
		return build(cfg, typ, inputs)
	}

	return map[string]any{
		"job_type": typ.String(),
		"note":     "no type-specific metadata",
	}
}

func scrapeMetadata(cfg MetadataConfig, _ job.Type, inputs map[string]any) map[string]any {
	channels := stringList(inputs, "channels", "target_channels", "channel_id")

	return map[string]any{
		"target_channels":       channels,
		"channel_count":         len(channels),
		"estimated_quota_units": cfg.UnitsPerChannel * len(channels),
	}
}

func fetchMetadata(cfg MetadataConfig, _ job.Type, inputs map[string]any) map[string]any {
	ids := stringList(inputs, "video_ids", "videos", "video_id")

	return map[string]any{
		"video_ids":             ids,
		"video_count":           len(ids),
		"estimated_quota_units": cfg.UnitsPerVideo * len(ids),
	}
}

func transcribeMetadata(cfg MetadataConfig, typ job.Type, inputs map[string]any) map[string]any {
	ids := stringList(inputs, "video_ids", "videos", "video_id")
	cost := cfg.PerVideoRateUSD * float64(len(ids))

	// Single estimates round to cents; batch estimates double the
	// granularity and round to half-cents.
	step := 100.0
	if typ.Batch() {
		step = 200.0
	}

	return map[string]any{
		"video_ids":          ids,
		"video_count":        len(ids),
		"estimated_cost_usd": math.Round(cost*step) / step,
	}
}

func summarizeMetadata(cfg MetadataConfig, _ job.Type, inputs map[string]any) map[string]any {
	ids := stringList(inputs, "video_ids", "videos", "video_id")

	platforms := stringList(inputs, "target_platforms", "platforms")
	if len(platforms) == 0 {
		platforms = []string{cfg.DefaultSummaryPlatform}
	}

	return map[string]any{
		"video_ids":        ids,
		"video_count":      len(ids),
		"target_platforms": platforms,
	}
}

// stringList pulls a list of strings out of untyped job inputs, accepting
// the first of the given keys that is present as either a single string,
// []string, or []any of strings.
func stringList(inputs map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := inputs[key]
		if !ok {
			continue
		}

		switch v := raw.(type) {
		case string:
			if v == "" {
				return []string{}
			}

			return []string{v}
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}

			return out
		}
	}

	return []string{}
}
