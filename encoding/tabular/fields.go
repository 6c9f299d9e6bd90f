package tabular

// fieldKind routes one tabular column to its handler during row
// decoding.  The vocabulary is closed: every field name BLAST -outfmt
// 7 or the FASTA tools' -m 8CB/-m 8CC outputs may declare appears in
// fieldTable, and an undeclared name is a fatal error.
type fieldKind int

const (
	fieldQueryID fieldKind = iota
	fieldTargetID
	fieldIntAnnotation
	fieldFloatAnnotation
	fieldStrAnnotation
	fieldQueryAnnotation       // string, attached to the query record
	fieldTargetAnnotation      // string, attached to the target record
	fieldTargetFloatAnnotation // float, attached to the target record
	fieldQueryStart
	fieldQueryEnd
	fieldTargetStart
	fieldTargetEnd
	fieldQueryLength
	fieldTargetLength
	fieldAlignmentLength
	fieldBTOP
	fieldCIGAR
	fieldQuerySeq
	fieldTargetSeq
	fieldScore
)

// fieldSpec is one resolved column handler.  key is the annotation key
// under which annotation-kind fields are stored; it often differs from
// the field name (e.g. "subject gi" is stored as the target
// annotation "gi").
type fieldSpec struct {
	name string
	kind fieldKind
	key  string
}

var fieldTable = map[string]fieldSpec{
	"query id":               {kind: fieldQueryID},
	"subject id":             {kind: fieldTargetID},
	"% identity":             {kind: fieldFloatAnnotation, key: "% identity"},
	"alignment length":       {kind: fieldAlignmentLength},
	"mismatches":             {kind: fieldIntAnnotation, key: "mismatches"},
	"gap opens":              {kind: fieldIntAnnotation, key: "gap opens"},
	"q. start":               {kind: fieldQueryStart},
	"q. end":                 {kind: fieldQueryEnd},
	"s. start":               {kind: fieldTargetStart},
	"s. end":                 {kind: fieldTargetEnd},
	"evalue":                 {kind: fieldFloatAnnotation, key: "evalue"},
	"bit score":              {kind: fieldFloatAnnotation, key: "bit score"},
	"BTOP":                   {kind: fieldBTOP},
	"aln_code":               {kind: fieldCIGAR},
	"score":                  {kind: fieldScore},
	"identical":              {kind: fieldIntAnnotation, key: "identical"},
	"positives":              {kind: fieldIntAnnotation, key: "positives"},
	"gaps":                   {kind: fieldIntAnnotation, key: "gaps"},
	"% positives":            {kind: fieldFloatAnnotation, key: "% positives"},
	"% hsp coverage":         {kind: fieldFloatAnnotation, key: "% hsp coverage"},
	"query/sbjct frames":     {kind: fieldStrAnnotation, key: "query/sbjct frames"},
	"query gi":               {kind: fieldQueryAnnotation, key: "gi"},
	"query acc.":             {kind: fieldQueryAnnotation, key: "acc."},
	"query acc.ver":          {kind: fieldQueryAnnotation, key: "acc.ver"},
	"query frame":            {kind: fieldQueryAnnotation, key: "frame"},
	"query length":           {kind: fieldQueryLength},
	"query seq":              {kind: fieldQuerySeq},
	"subject ids":            {kind: fieldTargetAnnotation, key: "ids"},
	"subject gi":             {kind: fieldTargetAnnotation, key: "gi"},
	"subject gis":            {kind: fieldTargetAnnotation, key: "gis"},
	"subject acc.":           {kind: fieldTargetAnnotation, key: "acc."},
	"subject accs.":          {kind: fieldTargetAnnotation, key: "accs."},
	"subject tax ids":        {kind: fieldTargetAnnotation, key: "tax ids"},
	"subject sci names":      {kind: fieldTargetAnnotation, key: "sci names"},
	"subject com names":      {kind: fieldTargetAnnotation, key: "com names"},
	"subject blast names":    {kind: fieldTargetAnnotation, key: "blast names"},
	"subject super kingdoms": {kind: fieldTargetAnnotation, key: "super kingdoms"},
	"subject title":          {kind: fieldTargetAnnotation, key: "title"},
	"subject titles":         {kind: fieldTargetAnnotation, key: "titles"},
	"subject strand":         {kind: fieldTargetAnnotation, key: "strand"},
	"subject acc.ver":        {kind: fieldTargetAnnotation, key: "acc.ver"},
	"sbjct frame":            {kind: fieldTargetAnnotation, key: "frame"},
	"% subject coverage":     {kind: fieldTargetFloatAnnotation, key: "% coverage"},
	"subject length":         {kind: fieldTargetLength},
	"subject seq":            {kind: fieldTargetSeq},
}

// resolveFields maps a "# Fields:" declaration to handler specs,
// failing on any name outside the closed vocabulary.
func resolveFields(names []string) ([]fieldSpec, string) {
	specs := make([]fieldSpec, 0, len(names))
	for _, name := range names {
		spec, ok := fieldTable[name]
		if !ok {
			return nil, name
		}
		spec.name = name
		specs = append(specs, spec)
	}
	return specs, ""
}
