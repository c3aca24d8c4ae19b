package linkagestore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/linkage"
)

// LinkageDao maps directly to the 'linkages' table in PostgreSQL.
// One row per user; access_token holds the encrypted provider credential.
type LinkageDao struct {
	bun.BaseModel `bun:"table:linkages,alias:l"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,unique,notnull"`
	AccessToken   string    `bun:"access_token,notnull,type:text"`
	ItemID        *string   `bun:"item_id,unique,type:varchar(128)"`
	Cursor        *string   `bun:"cursor,type:varchar(255)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toLinkageDao(lnk *linkage.Linkage) *LinkageDao {
	dao := &LinkageDao{
		ID:          lnk.ID,
		UserID:      lnk.UserID,
		AccessToken: lnk.AccessToken,
	}
	if lnk.ItemID != "" {
		dao.ItemID = &lnk.ItemID
	}
	if lnk.Cursor != "" {
		dao.Cursor = &lnk.Cursor
	}
	return dao
}

func toLinkage(dao *LinkageDao) *linkage.Linkage {
	lnk := &linkage.Linkage{
		ID:          dao.ID,
		UserID:      dao.UserID,
		AccessToken: dao.AccessToken,
		CreatedAt:   dao.CreatedAt,
		UpdatedAt:   dao.UpdatedAt,
	}
	if dao.ItemID != nil {
		lnk.ItemID = *dao.ItemID
	}
	if dao.Cursor != nil {
		lnk.Cursor = *dao.Cursor
	}
	return lnk
}
