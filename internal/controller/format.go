package controller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zach-source/bwrofi/internal/util"
	"github.com/zach-source/bwrofi/internal/vault"
)

// DedupMarker prefixes a name shared by several items.
const DedupMarker = "+ "

var indexPattern = regexp.MustCompile(`^#([0-9]+): `)

// uniqueNames lists each item name once, in first-seen order, marking
// names that several items share.
func uniqueNames(items []vault.Item) []string {
	names, groups := util.GroupOrdered(items, func(it vault.Item) string { return it.Name })
	labels := make([]string, len(names))
	for i, name := range names {
		if len(groups[name]) > 1 {
			labels[i] = DedupMarker + name
		} else {
			labels[i] = name
		}
	}
	return labels
}

// indexed renders "#N: text" labels for the items p can render and
// returns those items in label order.
func indexed(items []vault.Item, p Projection) ([]vault.Item, []string) {
	var (
		kept   []vault.Item
		labels []string
	)
	for _, it := range items {
		text, ok := p.Render(it)
		if !ok {
			continue
		}
		kept = append(kept, it)
		labels = append(labels, fmt.Sprintf("#%d: %s", len(kept), text))
	}
	return kept, labels
}

// pickIndexed maps a "#N: text" label back to its item.
func pickIndexed(items []vault.Item, label string) (vault.Item, error) {
	m := indexPattern.FindStringSubmatch(label)
	if m == nil {
		return vault.Item{}, fmt.Errorf("malformed selection %q", label)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > len(items) {
		return vault.Item{}, fmt.Errorf("selection %q out of range", label)
	}
	return items[n-1], nil
}

func folderNames(folders []vault.Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.Name
	}
	return out
}

func groupName(label string) (string, bool) {
	return strings.CutPrefix(label, DedupMarker)
}
