package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Serializers for every record the storage layer persists or the cache holds
// between pipeline stages. Hand-maintained: field order is the wire format,
// so append new fields at the end and never reorder existing ones.
var (
	IDMUS               = idMUS{}
	DocumentMUS         = documentMUS{}
	ChunkMUS            = chunkMUS{}
	ThemeMUS            = themeMUS{}
	QuoteMUS            = quoteMUS{}
	InsightMUS          = insightMUS{}
	KeywordMUS          = keywordMUS{}
	AnalysisResultMUS   = analysisResultMUS{}
	AggregatedResultMUS = aggregatedResultMUS{}
)

// serializer is the subset of mus-go's Serializer used by the slice helpers.
type serializer[T any] interface {
	Marshal(t T, bs []byte) (n int)
	Unmarshal(bs []byte) (t T, n int, err error)
	Size(t T) (size int)
}

func marshalSlice[T any](ser serializer[T], v []T, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for i := range v {
		n += ser.Marshal(v[i], bs[n:])
	}
	return
}

func unmarshalSlice[T any](ser serializer[T], bs []byte) (v []T, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return
	}
	for i := 0; i < length; i++ {
		var t T
		var n1 int
		t, n1, err = ser.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v = append(v, t)
	}
	return
}

func sizeSlice[T any](ser serializer[T], v []T) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for i := range v {
		size += ser.Size(v[i])
	}
	return
}

// Timestamps travel as Unix seconds plus nanoseconds so the zero time
// round-trips to the same instant.
func marshalTime(t time.Time, bs []byte) (n int) {
	n = varint.Int64.Marshal(t.Unix(), bs)
	n += varint.Int.Marshal(t.Nanosecond(), bs[n:])
	return
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	sec, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	nsec, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return time.Unix(sec, int64(nsec)), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.Unix()) + varint.Int.Size(t.Nanosecond())
}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(doc Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.Title, bs[n:])
	n += ord.String.Marshal(doc.Text, bs[n:])
	n += ord.String.Marshal(doc.Source, bs[n:])
	n += varint.Int.Marshal(int(doc.Status), bs[n:])
	n += varint.Int.Marshal(int(doc.Provenance), bs[n:])
	n += marshalTime(doc.CreatedAt, bs[n:])
	n += marshalTime(doc.UpdatedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (doc Document, n int, err error) {
	var n1 int
	if doc.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if doc.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	doc.Status = DocumentStatus(v)
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	doc.Provenance = Provenance(v)
	n += n1
	if doc.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	return doc, n, nil
}

func (documentMUS) Size(doc Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.Title)
	size += ord.String.Size(doc.Text)
	size += ord.String.Size(doc.Source)
	size += varint.Int.Size(int(doc.Status))
	size += varint.Int.Size(int(doc.Provenance))
	size += sizeTime(doc.CreatedAt)
	size += sizeTime(doc.UpdatedAt)
	return
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.DocumentId, bs)
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += varint.Int.Marshal(c.Start, bs[n:])
	n += varint.Int.Marshal(c.End, bs[n:])
	n += varint.Int.Marshal(c.StartPage, bs[n:])
	n += varint.Int.Marshal(c.EndPage, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.WordCount, bs[n:])
	n += marshalSlice(varint.Float32, c.Vector, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	for _, field := range []*int{&c.Index, &c.Start, &c.End, &c.StartPage, &c.EndPage} {
		if *field, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return c, n + n1, err
		}
		n += n1
	}
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.WordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = unmarshalSlice(varint.Float32, bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.Index)
	size += varint.Int.Size(c.Start)
	size += varint.Int.Size(c.End)
	size += varint.Int.Size(c.StartPage)
	size += varint.Int.Size(c.EndPage)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(c.WordCount)
	size += sizeSlice(varint.Float32, c.Vector)
	return
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type themeMUS struct{}

func (themeMUS) Marshal(t Theme, bs []byte) (n int) {
	n = ord.String.Marshal(t.Name, bs)
	n += varint.Float64.Marshal(t.Confidence, bs[n:])
	n += marshalSlice(ord.String, t.Evidence, bs[n:])
	n += varint.Int.Marshal(int(t.Provenance), bs[n:])
	return
}

func (themeMUS) Unmarshal(bs []byte) (t Theme, n int, err error) {
	var n1 int
	if t.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if t.Confidence, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.Evidence, n1, err = unmarshalSlice(ord.String, bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	t.Provenance = Provenance(v)
	n += n1
	return t, n, nil
}

func (themeMUS) Size(t Theme) (size int) {
	size = ord.String.Size(t.Name)
	size += varint.Float64.Size(t.Confidence)
	size += sizeSlice(ord.String, t.Evidence)
	size += varint.Int.Size(int(t.Provenance))
	return
}

func (s themeMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type quoteMUS struct{}

func (quoteMUS) Marshal(q Quote, bs []byte) (n int) {
	n = ord.String.Marshal(q.Text, bs)
	n += ord.String.Marshal(q.Speaker, bs[n:])
	n += varint.Float64.Marshal(q.Confidence, bs[n:])
	n += varint.Int.Marshal(int(q.Sensitivity), bs[n:])
	n += varint.Int.Marshal(int(q.Provenance), bs[n:])
	return
}

func (quoteMUS) Unmarshal(bs []byte) (q Quote, n int, err error) {
	var n1 int
	if q.Text, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if q.Speaker, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return q, n + n1, err
	}
	n += n1
	if q.Confidence, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return q, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return q, n + n1, err
	}
	q.Sensitivity = Sensitivity(v)
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return q, n + n1, err
	}
	q.Provenance = Provenance(v)
	n += n1
	return q, n, nil
}

func (quoteMUS) Size(q Quote) (size int) {
	size = ord.String.Size(q.Text)
	size += ord.String.Size(q.Speaker)
	size += varint.Float64.Size(q.Confidence)
	size += varint.Int.Size(int(q.Sensitivity))
	size += varint.Int.Size(int(q.Provenance))
	return
}

func (s quoteMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type insightMUS struct{}

func (insightMUS) Marshal(i Insight, bs []byte) (n int) {
	n = ord.String.Marshal(i.Text, bs)
	n += varint.Int.Marshal(int(i.Category), bs[n:])
	n += varint.Float64.Marshal(i.Importance, bs[n:])
	n += varint.Int.Marshal(int(i.Provenance), bs[n:])
	return
}

func (insightMUS) Unmarshal(bs []byte) (i Insight, n int, err error) {
	var n1 int
	if i.Text, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return i, n + n1, err
	}
	i.Category = InsightCategory(v)
	n += n1
	if i.Importance, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return i, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return i, n + n1, err
	}
	i.Provenance = Provenance(v)
	n += n1
	return i, n, nil
}

func (insightMUS) Size(i Insight) (size int) {
	size = ord.String.Size(i.Text)
	size += varint.Int.Size(int(i.Category))
	size += varint.Float64.Size(i.Importance)
	size += varint.Int.Size(int(i.Provenance))
	return
}

func (s insightMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type keywordMUS struct{}

func (keywordMUS) Marshal(k Keyword, bs []byte) (n int) {
	n = ord.String.Marshal(k.Term, bs)
	n += varint.Int.Marshal(k.Frequency, bs[n:])
	n += varint.Int.Marshal(int(k.Provenance), bs[n:])
	return
}

func (keywordMUS) Unmarshal(bs []byte) (k Keyword, n int, err error) {
	var n1 int
	if k.Term, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if k.Frequency, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return k, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return k, n + n1, err
	}
	k.Provenance = Provenance(v)
	n += n1
	return k, n, nil
}

func (keywordMUS) Size(k Keyword) (size int) {
	size = ord.String.Size(k.Term)
	size += varint.Int.Size(k.Frequency)
	size += varint.Int.Size(int(k.Provenance))
	return
}

func (s keywordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type analysisResultMUS struct{}

func (analysisResultMUS) Marshal(r AnalysisResult, bs []byte) (n int) {
	n = varint.Int.Marshal(r.ChunkIndex, bs)
	n += marshalSlice(ThemeMUS, r.Themes, bs[n:])
	n += marshalSlice(QuoteMUS, r.Quotes, bs[n:])
	n += marshalSlice(InsightMUS, r.Insights, bs[n:])
	n += marshalSlice(KeywordMUS, r.Keywords, bs[n:])
	n += ord.String.Marshal(r.Summary, bs[n:])
	n += varint.Int.Marshal(int(r.Provenance), bs[n:])
	return
}

func (analysisResultMUS) Unmarshal(bs []byte) (r AnalysisResult, n int, err error) {
	var n1 int
	if r.ChunkIndex, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if r.Themes, n1, err = unmarshalSlice(ThemeMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Quotes, n1, err = unmarshalSlice(QuoteMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Insights, n1, err = unmarshalSlice(InsightMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Keywords, n1, err = unmarshalSlice(KeywordMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	r.Provenance = Provenance(v)
	n += n1
	return r, n, nil
}

func (analysisResultMUS) Size(r AnalysisResult) (size int) {
	size = varint.Int.Size(r.ChunkIndex)
	size += sizeSlice(ThemeMUS, r.Themes)
	size += sizeSlice(QuoteMUS, r.Quotes)
	size += sizeSlice(InsightMUS, r.Insights)
	size += sizeSlice(KeywordMUS, r.Keywords)
	size += ord.String.Size(r.Summary)
	size += varint.Int.Size(int(r.Provenance))
	return
}

func (s analysisResultMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type aggregatedResultMUS struct{}

func (aggregatedResultMUS) Marshal(r AggregatedResult, bs []byte) (n int) {
	n = IDMUS.Marshal(r.DocumentId, bs)
	n += marshalSlice(ThemeMUS, r.Themes, bs[n:])
	n += marshalSlice(QuoteMUS, r.Quotes, bs[n:])
	n += marshalSlice(InsightMUS, r.Insights, bs[n:])
	n += marshalSlice(KeywordMUS, r.Keywords, bs[n:])
	n += ord.String.Marshal(r.Summary, bs[n:])
	n += varint.Int.Marshal(int(r.Provenance), bs[n:])
	n += varint.Int.Marshal(r.ChunksAnalyzed, bs[n:])
	n += varint.Int.Marshal(r.ChunksFailed, bs[n:])
	return
}

func (aggregatedResultMUS) Unmarshal(bs []byte) (r AggregatedResult, n int, err error) {
	var n1 int
	if r.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.Themes, n1, err = unmarshalSlice(ThemeMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Quotes, n1, err = unmarshalSlice(QuoteMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Insights, n1, err = unmarshalSlice(InsightMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Keywords, n1, err = unmarshalSlice(KeywordMUS, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	r.Provenance = Provenance(v)
	n += n1
	if r.ChunksAnalyzed, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ChunksFailed, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (aggregatedResultMUS) Size(r AggregatedResult) (size int) {
	size = IDMUS.Size(r.DocumentId)
	size += sizeSlice(ThemeMUS, r.Themes)
	size += sizeSlice(QuoteMUS, r.Quotes)
	size += sizeSlice(InsightMUS, r.Insights)
	size += sizeSlice(KeywordMUS, r.Keywords)
	size += ord.String.Size(r.Summary)
	size += varint.Int.Size(int(r.Provenance))
	size += varint.Int.Size(r.ChunksAnalyzed)
	size += varint.Int.Size(r.ChunksFailed)
	return
}

func (s aggregatedResultMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
