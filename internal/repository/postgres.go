package repository

import (
	stderrors "errors"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/pkg/conn"
)

type setMemberRow struct {
	Key    string `gorm:"column:key;primaryKey;size:512"`
	Member string `gorm:"column:member;primaryKey;size:512"`
}

func (setMemberRow) TableName() string { return "kv_set_members" }

type hashFieldRow struct {
	Key   string `gorm:"column:key;primaryKey;size:512"`
	Field string `gorm:"column:field;primaryKey;size:512"`
	Value string `gorm:"column:value"`
}

func (hashFieldRow) TableName() string { return "kv_hash_fields" }

type listItemRow struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Key   string `gorm:"column:key;index;size:512"`
	Value []byte `gorm:"column:value"`
}

func (listItemRow) TableName() string { return "kv_list_items" }

// Postgres is a durable Store over a shared PostgreSQL instance.
type Postgres struct {
	client *conn.Client
}

// OpenPostgres connects and migrates the key-value tables.
func OpenPostgres(option conn.Option) (*Postgres, error) {
	client, err := conn.New(option)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := client.DB().AutoMigrate(&setMemberRow{}, &hashFieldRow{}, &listItemRow{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate key-value tables")
	}
	return &Postgres{client: client}, nil
}

func (p *Postgres) SetAdd(key, member string) error {
	err := p.client.DB().
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&setMemberRow{Key: key, Member: member}).Error
	if err != nil {
		return errors.Wrap(err, "set add")
	}
	return nil
}

func (p *Postgres) SetRemove(key, member string) error {
	err := p.client.DB().
		Where("key = ? AND member = ?", key, member).
		Delete(&setMemberRow{}).Error
	if err != nil {
		return errors.Wrap(err, "set remove")
	}
	return nil
}

func (p *Postgres) SetMembers(key string) ([]string, error) {
	var out []string
	err := p.client.DB().
		Model(&setMemberRow{}).
		Where("key = ?", key).
		Order("member").
		Pluck("member", &out).Error
	if err != nil {
		return nil, errors.Wrap(err, "set members")
	}
	return out, nil
}

func (p *Postgres) HashSet(key, field, value string) error {
	err := p.client.DB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "field"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&hashFieldRow{Key: key, Field: field, Value: value}).Error
	if err != nil {
		return errors.Wrap(err, "hash set")
	}
	return nil
}

func (p *Postgres) HashGet(key, field string) (string, bool, error) {
	var row hashFieldRow
	err := p.client.DB().
		Where("key = ? AND field = ?", key, field).
		First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "hash get")
	}
	return row.Value, true, nil
}

func (p *Postgres) HashGetAll(key string) (map[string]string, error) {
	var rows []hashFieldRow
	err := p.client.DB().
		Where("key = ?", key).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "hash get all")
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Field] = row.Value
	}
	return out, nil
}

func (p *Postgres) ListPush(key string, value []byte) error {
	if err := p.client.DB().Create(&listItemRow{Key: key, Value: value}).Error; err != nil {
		return errors.Wrap(err, "list push")
	}
	return nil
}

func (p *Postgres) ListRange(key string) ([][]byte, error) {
	var rows []listItemRow
	err := p.client.DB().
		Where("key = ?", key).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list range")
	}
	out := make([][]byte, len(rows))
	for i, row := range rows {
		out[i] = row.Value
	}
	return out, nil
}

func (p *Postgres) ListLen(key string) (int, error) {
	var count int64
	err := p.client.DB().
		Model(&listItemRow{}).
		Where("key = ?", key).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "list len")
	}
	return int(count), nil
}

func (p *Postgres) Flush() error {
	session := p.client.DB().Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := session.Delete(&setMemberRow{}).Error; err != nil {
		return errors.Wrap(err, "flush sets")
	}
	if err := session.Delete(&hashFieldRow{}).Error; err != nil {
		return errors.Wrap(err, "flush hashes")
	}
	if err := session.Delete(&listItemRow{}).Error; err != nil {
		return errors.Wrap(err, "flush lists")
	}
	return nil
}

func (p *Postgres) Close() error {
	if err := p.client.Close(); err != nil {
		return errors.Wrap(err, "close postgres")
	}
	return nil
}
