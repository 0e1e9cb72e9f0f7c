package mailbox

import (
	"sort"

	"github.com/nhle/mailsweep/internal/model"
)

// UnsubscribeProbe derives an unsubscribe reference for one scanned
// message, or returns empty when none can be found.
type UnsubscribeProbe func(model.MessageSummary) string

// GroupBySender partitions scanned summaries by normalized sender address.
// Every summary lands in exactly one group, so group counts always sum to
// the number of summaries. The probe is lazy: once a group has an
// unsubscribe reference, its remaining messages are not probed.
func GroupBySender(summaries []model.MessageSummary, probe UnsubscribeProbe) map[string]*model.SenderGroup {
	groups := make(map[string]*model.SenderGroup)

	for _, sum := range summaries {
		g, ok := groups[sum.Sender]
		if !ok {
			g = &model.SenderGroup{Sender: sum.Sender}
			groups[sum.Sender] = g
		}

		g.UIDs = append(g.UIDs, sum.UID)
		g.Count++

		if g.Unsubscribe == "" && probe != nil {
			g.Unsubscribe = probe(sum)
		}
	}

	return groups
}

// SortGroups orders groups by descending message count, ties broken by
// sender address, for stable display.
func SortGroups(groups map[string]*model.SenderGroup) []*model.SenderGroup {
	out := make([]*model.SenderGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sender < out[j].Sender
	})
	return out
}

// SenderStats selects the folder, scans every message, and returns the
// per-sender groups with unsubscribe references resolved through the
// session's extractor. maxBatches <= 0 scans the whole folder.
func (s *Session) SenderStats(folder string, maxBatches int) (map[string]*model.SenderGroup, error) {
	if err := s.SelectFolder(folder); err != nil {
		return nil, err
	}

	summaries, err := s.ScanLimit(AllCriteria(), maxBatches)
	if err != nil {
		return nil, err
	}

	return GroupBySender(summaries, s.unsubscribeRef), nil
}
