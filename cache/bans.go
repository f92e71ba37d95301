package cache

import (
	"context"
	"time"

	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/pkg/errors"
)

// AddBan blacklists the user or guild $id
func AddBan(ctx context.Context, s store.Store, mirror *Mirror, id, reason string) (models.Ban, error) {
	ban := models.Ban{
		Reason:    reason,
		CreatedAt: time.Now().UnixNano() / int64(time.Millisecond),
	}
	if err := s.Set(ctx, store.Path(models.BansTable, id), ban); err != nil {
		return ban, errors.Wrapf(err, "banning %s", id)
	}
	if mirror != nil {
		mirror.ApplyValue(models.BansTable, id, ban)
	}
	return ban, nil
}

// RemoveBan lifts the ban of $id, removing an unknown id is not an error
func RemoveBan(ctx context.Context, s store.Store, mirror *Mirror, id string) error {
	err := s.Remove(ctx, store.Path(models.BansTable, id))
	if err != nil && errors.Cause(err) != store.ErrNotFound {
		return errors.Wrapf(err, "unbanning %s", id)
	}
	if mirror != nil {
		mirror.ApplyRemove(models.BansTable, id)
	}
	return nil
}

// ListBans reads the ban list straight from the store
func ListBans(ctx context.Context, s store.Store) (map[string]models.Ban, error) {
	raw, err := s.List(ctx, models.BansTable)
	if err != nil {
		return nil, errors.Wrap(err, "listing bans")
	}

	bans := make(map[string]models.Ban, len(raw))
	for id, data := range raw {
		var ban models.Ban
		if err = json.Unmarshal(data, &ban); err != nil {
			return nil, errors.Wrapf(err, "decoding ban %s", id)
		}
		bans[id] = ban
	}
	return bans, nil
}
