package logger_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/jinzhu/now"
	"github.com/relate-orm/relate/logger"
	"github.com/stretchr/testify/assert"
)

func TestExplainSQL(t *testing.T) {
	var (
		tt            = now.MustParse("2020-02-23 11:10:10")
		myrole        = "admin"
		pgPlaceholder = regexp.MustCompile(`\$(\d+)`)
	)

	results := []struct {
		SQL           string
		NumericRegexp *regexp.Regexp
		Vars          []interface{}
		Result        string
	}{
		{
			SQL:    "UPDATE `pets` SET `user_id`=? WHERE `user_id` = ? AND `id` IN (?,?)",
			Vars:   []interface{}{0, int64(1), int64(3), int64(5)},
			Result: "UPDATE `pets` SET `user_id`=0 WHERE `user_id` = 1 AND `id` IN (3,5)",
		},
		{
			SQL:    "INSERT INTO `users` (`name`,`role`,`active`,`birthday`,`score`) VALUES (?,?,?,?,?)",
			Vars:   []interface{}{"jinzhu's", myrole, true, tt, 1.5},
			Result: "INSERT INTO `users` (`name`,`role`,`active`,`birthday`,`score`) VALUES (\"jinzhu's\",\"admin\",true,\"2020-02-23 11:10:10\",1.5)",
		},
		{
			SQL:           `UPDATE "toys" SET "owner_id"=$1,"owner_model"=$2 WHERE "id" = $3`,
			NumericRegexp: pgPlaceholder,
			Vars:          []interface{}{int64(2), nil, int64(9)},
			Result:        `UPDATE "toys" SET "owner_id"=2,"owner_model"=NULL WHERE "id" = 9`,
		},
	}

	for idx, r := range results {
		if result := logger.ExplainSQL(r.SQL, r.NumericRegexp, `"`, r.Vars...); result != r.Result {
			t.Errorf("Explain SQL #%v expects %v, but got %v", idx, r.Result, result)
		}
	}
}

func TestExplainSQLKeepsVars(t *testing.T) {
	vars := []interface{}{"a", time.Time{}}
	logger.ExplainSQL("SELECT ?, ?", nil, `'`, vars...)
	assert.Equal(t, "a", vars[0])
	assert.Equal(t, time.Time{}, vars[1])
}
