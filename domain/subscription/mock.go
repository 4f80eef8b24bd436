package subscription

import "time"

// MockMemberID is the member id reported by locally synthesized records.
const MockMemberID int64 = 1

// AddID returns ids with id appended unless it is already present.
func AddID(ids []int64, id int64) []int64 {
	if ContainsID(ids, id) {
		return ids
	}
	out := make([]int64, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MockRecord synthesizes the record returned by a local subscribe. The
// subscription id is derived from the current time in milliseconds.
func MockRecord(artiProfileID int64, now time.Time) Record {
	return Record{
		SubscriptionID: now.UnixMilli(),
		MemberID:       MockMemberID,
		ArtiProfileID:  artiProfileID,
		CreatedAt:      formatTimestamp(now),
	}
}

// MockRecords synthesizes records for every id in the local set, numbering
// subscriptions sequentially from 1.
func MockRecords(ids []int64, now time.Time) []Record {
	records := make([]Record, len(ids))
	for i, id := range ids {
		records[i] = Record{
			SubscriptionID: int64(i + 1),
			MemberID:       MockMemberID,
			ArtiProfileID:  id,
			CreatedAt:      formatTimestamp(now),
		}
	}
	return records
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
