package main

// bio-aligntab decodes tabular alignment output from BLAST (-outfmt 7)
// or the FASTA programs (-m 8CB / -m 8CC) and re-emits one TSV summary
// line per alignment.
//
// Example:
//
//	bio-aligntab -out hits-summary.tsv hits1.tsv hits2.tsv.gz
//
// Input and output paths may be local or on any file system supported
// by grailbio/base/file (e.g. s3://).  Gzip-compressed inputs are
// detected by suffix.  Rows that fail to decode are logged and
// skipped; the exit status is nonzero if any row failed.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ItValeria/aligntab/align"
	"github.com/ItValeria/aligntab/encoding/tabular"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
)

var (
	outFlag = flag.String("out", "", "Output summary TSV path. Empty writes to stdout.")
)

const header = "program\tquery_id\ttarget_id\tquery_start\tquery_end\ttarget_start\ttarget_end\tlength\tpct_identity\tevalue\tscore\tcigar"

// writeSummary appends one summary line for rec.
func writeSummary(w *tsv.Writer, program string, rec *align.Record) error {
	w.WriteString(program)
	w.WriteString(rec.Query.ID)
	w.WriteString(rec.Target.ID)
	if rec.Coords != nil {
		qs, qe := rec.Coords.QueryRange()
		ts, te := rec.Coords.TargetRange()
		w.WriteString(strconv.Itoa(qs))
		w.WriteString(strconv.Itoa(qe))
		w.WriteString(strconv.Itoa(ts))
		w.WriteString(strconv.Itoa(te))
	} else {
		for i := 0; i < 4; i++ {
			w.WriteString(".")
		}
	}
	w.WriteString(strconv.Itoa(rec.AlignmentLength()))
	w.WriteString(annotationString(rec.Annotations, "% identity"))
	w.WriteString(annotationString(rec.Annotations, "evalue"))
	if rec.HasScore {
		w.WriteString(strconv.Itoa(rec.Score))
	} else {
		w.WriteString(".")
	}
	if rec.Coords != nil {
		cigar, err := rec.Coords.Cigar()
		if err != nil {
			return err
		}
		w.WriteString(cigar.String())
	} else {
		w.WriteString(".")
	}
	return w.EndLine()
}

func annotationString(annotations map[string]interface{}, key string) string {
	v, ok := annotations[key]
	if !ok {
		return "."
	}
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// process decodes one input file, returning the number of decoded and
// failed rows.
func process(path string, w *tsv.Writer) (decoded, failed int) {
	in, err := tabular.Open(path)
	if err != nil {
		log.Panicf("%v: %v", path, err)
	}
	defer func() {
		if err := in.Close(); err != nil {
			log.Panicf("%v: close: %v", path, err)
		}
	}()
	for {
		rec, err := in.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error.Printf("%v: skipping row: %v", path, err)
			failed++
			continue
		}
		if err := writeSummary(w, in.Program(), rec); err != nil {
			log.Panicf("%v: write summary: %v", path, err)
		}
		decoded++
	}
}

func main() {
	shutdown := grail.Init()
	// run's deferred closes commit the output file; exit only after
	// they and shutdown have finished.
	code := run()
	shutdown()
	os.Exit(code)
}

func run() int {
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bio-aligntab [-out path] input.tsv...")
		return 2
	}

	ctx := vcontext.Background()
	out := io.Writer(os.Stdout)
	if *outFlag != "" {
		f, err := file.Create(ctx, *outFlag)
		if err != nil {
			log.Panicf("%v: %v", *outFlag, err)
		}
		defer func() {
			if err := f.Close(ctx); err != nil {
				log.Panicf("%v: close: %v", *outFlag, err)
			}
		}()
		out = f.Writer(ctx)
	}
	w := tsv.NewWriter(out)
	w.WriteString(header)
	if err := w.EndLine(); err != nil {
		log.Panicf("write header: %v", err)
	}

	totalDecoded, totalFailed := 0, 0
	for _, path := range flag.Args() {
		decoded, failed := process(path, w)
		totalDecoded += decoded
		totalFailed += failed
	}
	if err := w.Flush(); err != nil {
		log.Panicf("flush: %v", err)
	}
	log.Printf("decoded %d alignment(s), %d failed row(s)", totalDecoded, totalFailed)
	if totalFailed > 0 {
		return 1
	}
	return 0
}
