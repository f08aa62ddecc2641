package align

import (
	"github.com/tsawler/collate/chunk"
	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
)

// Stat keys attached to every matched section.
const (
	StatWords         = "words"
	StatElements      = "elements"
	StatTextElements  = "elements.text"
	StatTableElements = "elements.table"
	StatImageElements = "elements.image"
	StatExtentWidth   = "extent.width"
	StatExtentHeight  = "extent.height"
)

// regionStats aggregates counts and extent over the region's elements.
func regionStats(idx *index.Index, tok chunk.Tokenizer, region model.Region) map[string]float64 {
	stats := map[string]float64{
		StatWords:         0,
		StatElements:      0,
		StatTextElements:  0,
		StatTableElements: 0,
		StatImageElements: 0,
		StatExtentWidth:   0,
		StatExtentHeight:  0,
	}

	var extent model.BBox
	first := true
	for ord := region.Start; ord < region.End && ord < idx.Len(); ord++ {
		e := idx.At(ord)
		stats[StatElements]++
		switch e.Type {
		case model.ElementTypeText:
			stats[StatTextElements]++
			stats[StatWords] += float64(len(tok.Tokenize(e.Text)))
		case model.ElementTypeTable:
			stats[StatTableElements]++
		case model.ElementTypeImage:
			stats[StatImageElements]++
		}
		if first {
			extent = e.BBox
			first = false
		} else {
			extent = extent.Union(e.BBox)
		}
	}
	stats[StatExtentWidth] = extent.Width
	stats[StatExtentHeight] = extent.Height
	return stats
}
