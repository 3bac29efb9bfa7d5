package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const chapterFile = "chapter.yaml"

// chapterMeta mirrors chapter.yaml.
type chapterMeta struct {
	Number      int    `yaml:"number"`
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// Topic is a top-level lesson of a chapter outline with the lessons
// nested under its section number.
type Topic struct {
	Lesson    *Lesson
	Subtopics []*Lesson
}

// Catalog is an immutable snapshot of all published lessons.
type Catalog struct {
	Chapters []*Chapter
	// Warnings holds advisory problems such as malformed math.
	Warnings []Problem
	LoadedAt time.Time

	ordered    []*Lesson
	position   map[string]int
	chapters   map[string]*Chapter
	byLegacyID map[int]*Lesson
}

type chapterResult struct {
	chapter  *Chapter
	problems []Problem
}

// Load reads every chapter directory of fsys. Lesson files are parsed and
// validated concurrently; any error-level problem fails the whole load with
// a *ValidationError.
func Load(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	catalog, problems, err := load(ctx, fsys)
	if err != nil {
		return nil, err
	}
	if hasErrors(problems) {
		return nil, &ValidationError{Problems: errorsOnly(problems)}
	}
	catalog.Warnings = problems
	return catalog, nil
}

func load(ctx context.Context, fsys fs.FS) (*Catalog, []Problem, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("read content root: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		dirs = append(dirs, name)
	}

	results := make([]chapterResult, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, dir := range dirs {
		g.Go(func() error {
			res, err := loadChapter(gctx, fsys, dir)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var problems []Problem
	catalog := &Catalog{
		position:   make(map[string]int),
		chapters:   make(map[string]*Chapter),
		byLegacyID: make(map[int]*Lesson),
		LoadedAt:   time.Now(),
	}
	for _, res := range results {
		problems = append(problems, res.problems...)
		if res.chapter == nil {
			continue
		}
		if other, ok := catalog.chapters[res.chapter.Slug]; ok {
			problems = append(problems, Problem{
				Path:     res.chapter.Dir,
				Message:  fmt.Sprintf("chapter slug %q already used by %s", res.chapter.Slug, other.Dir),
				Severity: SeverityError,
			})
			continue
		}
		catalog.chapters[res.chapter.Slug] = res.chapter
		catalog.Chapters = append(catalog.Chapters, res.chapter)
	}

	sort.SliceStable(catalog.Chapters, func(i, j int) bool {
		a, b := catalog.Chapters[i], catalog.Chapters[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.Slug < b.Slug
	})

	for _, chapter := range catalog.Chapters {
		for _, lesson := range chapter.Lessons {
			if lesson.LegacyID > 0 {
				if other, ok := catalog.byLegacyID[lesson.LegacyID]; ok {
					problems = append(problems, Problem{
						Path:     lesson.Path,
						Message:  fmt.Sprintf("legacy_id %d already used by %s", lesson.LegacyID, other.Path),
						Severity: SeverityError,
					})
				} else {
					catalog.byLegacyID[lesson.LegacyID] = lesson
				}
			}
			catalog.position[lesson.Key()] = len(catalog.ordered)
			catalog.ordered = append(catalog.ordered, lesson)
		}
	}

	return catalog, problems, nil
}

// Check loads fsys and returns every problem found, warnings included.
// The error is non-nil only when the tree cannot be read at all.
func Check(ctx context.Context, fsys fs.FS) ([]Problem, error) {
	_, problems, err := load(ctx, fsys)
	return problems, err
}

func loadChapter(ctx context.Context, fsys fs.FS, dir string) (chapterResult, error) {
	var res chapterResult

	meta := chapterMeta{Title: Humanize(dir)}
	data, err := fs.ReadFile(fsys, path.Join(dir, chapterFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &meta); err != nil {
			res.problems = append(res.problems, Problem{
				Path:     path.Join(dir, chapterFile),
				Message:  err.Error(),
				Severity: SeverityError,
			})
			return res, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return res, fmt.Errorf("read %s: %w", path.Join(dir, chapterFile), err)
	}

	chapter := &Chapter{
		Number:      meta.Number,
		Title:       strings.TrimSpace(meta.Title),
		Slug:        Slugify(meta.Slug),
		Dir:         dir,
		Description: strings.TrimSpace(meta.Description),
	}
	if chapter.Slug == "" {
		chapter.Slug = Slugify(dir)
	}
	if chapter.Title == "" {
		chapter.Title = Humanize(dir)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return res, fmt.Errorf("read chapter %s: %w", dir, err)
	}

	slugs := make(map[string]string)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}

		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return res, fmt.Errorf("read lesson %s: %w", p, err)
		}

		lesson, err := ParseLesson(p, data)
		if err != nil {
			res.problems = append(res.problems, Problem{Path: p, Message: err.Error(), Severity: SeverityError})
			continue
		}
		res.problems = append(res.problems, Validate(lesson)...)
		if lesson.Draft {
			continue
		}

		lesson.ChapterSlug = chapter.Slug
		lesson.ChapterTitle = chapter.Title
		lesson.Slug = Slugify(strings.TrimSuffix(entry.Name(), ".md"))
		if lesson.Slug == "" {
			res.problems = append(res.problems, Problem{Path: p, Message: "file name gives an empty slug", Severity: SeverityError})
			continue
		}
		if other, ok := slugs[lesson.Slug]; ok {
			res.problems = append(res.problems, Problem{
				Path:     p,
				Message:  fmt.Sprintf("lesson key %q already used by %s", lesson.Key(), other),
				Severity: SeverityError,
			})
			continue
		}
		slugs[lesson.Slug] = p
		chapter.Lessons = append(chapter.Lessons, lesson)
	}

	sort.SliceStable(chapter.Lessons, func(i, j int) bool {
		a, b := chapter.Lessons[i], chapter.Lessons[j]
		if c := compareSections(a.Section, b.Section); c != 0 {
			return c < 0
		}
		return a.Slug < b.Slug
	})

	res.chapter = chapter
	return res, nil
}

// Chapter returns the chapter with the given slug.
func (c *Catalog) Chapter(slug string) (*Chapter, bool) {
	if c == nil {
		return nil, false
	}
	chapter, ok := c.chapters[slug]
	return chapter, ok
}

// Lesson returns a lesson by chapter and lesson slug.
func (c *Catalog) Lesson(chapter, slug string) (*Lesson, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.position[chapter+"/"+slug]
	if !ok {
		return nil, false
	}
	return c.ordered[i], true
}

// ByLegacyID resolves an old numeric lesson id.
func (c *Catalog) ByLegacyID(id int) (*Lesson, bool) {
	if c == nil {
		return nil, false
	}
	lesson, ok := c.byLegacyID[id]
	return lesson, ok
}

// Neighbors returns the lessons before and after lesson in reading order,
// crossing chapter boundaries. Either may be nil.
func (c *Catalog) Neighbors(lesson *Lesson) (prev, next *Lesson) {
	if c == nil || lesson == nil {
		return nil, nil
	}
	i, ok := c.position[lesson.Key()]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		prev = c.ordered[i-1]
	}
	if i+1 < len(c.ordered) {
		next = c.ordered[i+1]
	}
	return prev, next
}

// Outline groups a chapter's lessons into topics. A lesson is a subtopic
// of the nearest topic whose section is one of its section's ancestors.
func (c *Catalog) Outline(chapterSlug string) []Topic {
	chapter, ok := c.Chapter(chapterSlug)
	if !ok {
		return nil
	}

	var topics []Topic
	topicBySection := make(map[string]int)
	for _, lesson := range chapter.Lessons {
		parent := -1
		for section := parentSection(lesson.Section); section != ""; section = parentSection(section) {
			if i, ok := topicBySection[section]; ok {
				parent = i
				break
			}
		}
		if parent >= 0 {
			topics[parent].Subtopics = append(topics[parent].Subtopics, lesson)
			continue
		}
		if lesson.Section != "" {
			topicBySection[lesson.Section] = len(topics)
		}
		topics = append(topics, Topic{Lesson: lesson})
	}
	return topics
}

// Lessons returns every lesson in reading order.
func (c *Catalog) Lessons() []*Lesson {
	if c == nil {
		return nil
	}
	return c.ordered
}

// Count is the number of published lessons.
func (c *Catalog) Count() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}
