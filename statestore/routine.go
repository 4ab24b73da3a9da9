package statestore

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"time"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
)

func (s *stateStoreImpl) gcRoutine() {
	defer func() {
		s.exitLoop <- true
	}()

	after := time.NewTicker(s.opts.GCPeriod)
	defer after.Stop()
	for {
		select {
		case <-s.routineCtx.Done():
			log.Infof("Exit GC routine")
			return
		case <-after.C:
			log.Infof("Start GC round")
			cleaned, err := s.gcRound()
			if err != nil {
				log.Warnf("GC - Fail to finish round: %v", err.Error())
			}
			log.Infof("GC round cleared %v snapshots", cleaned)
		}
		if s.routineCtx.Err() != nil {
			log.Warnf("Exit mainloop due to context cancelled: %v", s.routineCtx.Err().Error())
			return
		}
	}
}

// gcRound deletes the snapshots outside the retention window.
func (s *stateStoreImpl) gcRound() (int, error) {
	if s.opts.SnapshotsToRetain == 0 {
		return 0, nil
	}
	height, _, err := s.GetPersistedHeight()
	if err != nil {
		return 0, err
	}
	if height < s.opts.SnapshotsToRetain {
		return 0, nil
	}
	// Snapshots at or below cutoff are pruned.
	cutoff := height - s.opts.SnapshotsToRetain

	results, err := s.ds.Query(s.routineCtx, query.Query{Prefix: separator + snapshotKey, KeysOnly: true})
	if err != nil {
		return 0, err
	}
	stale := make([]datastore.Key, 0)
	for r := range results.Next() {
		if r.Error != nil {
			results.Close()
			return 0, r.Error
		}
		if splitSnapshotKey(r.Key) <= cutoff {
			stale = append(stale, datastore.NewKey(r.Key))
		}
	}
	results.Close()
	if len(stale) == 0 {
		return 0, nil
	}

	txn, err := s.ds.NewTransaction(s.routineCtx, false)
	if err != nil {
		return 0, err
	}
	defer txn.Discard(s.routineCtx)
	for _, key := range stale {
		if s.routineCtx.Err() != nil {
			return 0, s.routineCtx.Err()
		}
		if err = txn.Delete(s.routineCtx, key); err != nil {
			return 0, err
		}
	}
	if err = txn.Commit(s.routineCtx); err != nil {
		return 0, err
	}
	return len(stale), nil
}
