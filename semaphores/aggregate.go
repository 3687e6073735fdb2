package semaphores

import (
	"fmt"

	"www.velocidex.com/golang/semwatch/utils"
)

// Aggregate folds the inventory into a tally. A record owned by a
// tracked user goes to that user's bucket (every bucket of that user
// when roles share an account), everything else goes to System.
func Aggregate(records []Record, tracked ...Identity) (*Tally, error) {
	if len(tracked) == 0 {
		return nil, fmt.Errorf("%w: no tracked identities",
			utils.InvalidArgumentError)
	}

	result := &Tally{
		Tracked: make([]Bucket, 0, len(tracked)),
	}

	// Owner -> bucket indexes.
	owners := make(map[string][]int)
	for idx, identity := range tracked {
		if identity.User == "" {
			return nil, fmt.Errorf("%w: empty user for role %v",
				utils.InvalidArgumentError, identity.Role)
		}

		if len(owners[identity.User]) > 0 {
			result.Shared = true
		}
		owners[identity.User] = append(owners[identity.User], idx)
		result.Tracked = append(result.Tracked, Bucket{Identity: identity})
	}

	for _, record := range records {
		result.total += record.Count

		indexes, pres := owners[record.Owner]
		if !pres {
			result.System += record.Count
			continue
		}

		for _, idx := range indexes {
			result.Tracked[idx].Count += record.Count
		}
	}

	return result, nil
}
