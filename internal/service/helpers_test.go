package service

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/render"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

const quantLesson = `---
title: "Median with Unknown Values"
section: "14.6.4"
heading: "Finding the median when a value is unknown"
description: "Bounding the median of a set."
legacy_id: 2455
---
Sort the known values of the set first.

~~~mcq
number: 43
prompt: "If S = {x, 4, 3, 12, 11, 10, 10}, what is the median of set S?"
options: ["3", "5", "10", "11", "12"]
correct: "10"
solution: "The two 10s hold the middle."
~~~

~~~ds
number: 2
question: 'Is $\sqrt{18a}$ an integer?'
statements: ["a is a multiple of 2", "a is a multiple of 9"]
correct: "E"
solution: "Try a = 18 and a = 36."
~~~

~~~ds
number: 3
question: "Drill: which statement helps?"
statements: ["x > 0", "x < 5"]
correct: "—"
~~~
`

type staticSource struct {
	catalog *content.Catalog
}

func (s *staticSource) Catalog() *content.Catalog { return s.catalog }

func loadTestCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"Statistics/chapter.yaml": {Data: []byte("number: 14\ntitle: Statistics\n")},
		"Statistics/median.md":    {Data: []byte(quantLesson)},
		"Statistics/mean.md":      {Data: []byte("---\ntitle: Arithmetic Mean\nsection: \"14.1\"\n---\nThe mean is the sum divided by the count.\n")},
		"Statistics/range.md":     {Data: []byte("---\ntitle: Range\nsection: \"14.2\"\n---\nRange is $\\max - \\min$ of a set.\n")},
	}
	catalog, err := content.Load(context.Background(), fsys)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

func newTestRenderer() LessonRenderer {
	return render.New(nil)
}
