package estimate

// Format selects the output rendering.
type Format int

const (
	// FormatAdj writes one adjacency line per anchor contig, with the
	// forward-sense and reverse-sense links separated by a ";" token.
	FormatAdj Format = iota
	// FormatDot writes one directed graph edge per valid link.
	FormatDot
)

// Opts configures a distance estimation run.  All fields are fixed before
// any worker starts; in particular RF is decided once from the histogram and
// never changes afterwards.
type Opts struct {
	// K is the k-mer size the contigs were assembled with.  The distance
	// search extends down to -(K-1), the largest possible overlap between
	// two contigs that were not merged.
	K int
	// MinPairs is the minimum number of distinct fragment observations
	// required for a link to be reported.
	MinPairs int
	// SeedLen is the minimum length of an anchor contig.  Batches anchored
	// at shorter contigs are skipped.
	SeedLen int
	// MinMapQ filters out alignments with a lower mapping quality.
	MinMapQ int
	// RF is true when the library is oriented reverse-forward.
	RF     bool
	Format Format
	// Threads is the number of worker goroutines.
	Threads int
	// Verbose raises the diagnostic level; at 2 and above, links with too
	// few agreeing pairs are reported as warnings.
	Verbose int
}

// DefaultOpts holds the defaults for the optional knobs.
var DefaultOpts = Opts{
	MinMapQ: 1,
	Threads: 1,
}
