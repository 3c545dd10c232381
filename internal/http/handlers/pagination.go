package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type pageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Page   *int    `json:"page"`
	Active bool    `json:"active"`
}

type pagination struct {
	CurrentPage int        `json:"current_page"`
	From        *int       `json:"from"`
	LastPage    int        `json:"last_page"`
	Links       []pageLink `json:"links"`
	Path        string     `json:"path"`
	PerPage     int        `json:"per_page"`
	To          *int       `json:"to"`
	Total       int        `json:"total"`
}

type page struct {
	Number int
	Size   int
}

func (p page) Offset() int { return (p.Number - 1) * p.Size }

// pageParams reads ?page and ?page_size; junk falls back to the defaults.
func pageParams(c *fiber.Ctx) page {
	n, err := strconv.Atoi(c.Query("page"))
	if err != nil || n < 1 {
		n = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page{Number: n, Size: size}
}

func pageURL(c *fiber.Ctx, n int) *string {
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	q.Set("page", strconv.Itoa(n))
	s := c.BaseURL() + c.Path() + "?" + q.Encode()
	return &s
}

func buildPagination(c *fiber.Ctx, p page, count, total int) pagination {
	last := 1
	if total > 0 {
		last = (total + p.Size - 1) / p.Size
	}
	pg := pagination{
		CurrentPage: p.Number,
		LastPage:    last,
		Path:        c.BaseURL() + c.Path(),
		PerPage:     p.Size,
		Total:       total,
	}
	if count > 0 {
		from := p.Offset() + 1
		to := p.Offset() + count
		pg.From, pg.To = &from, &to
	}

	prev := pageLink{Label: "&laquo; Previous"}
	if p.Number > 1 {
		n := p.Number - 1
		prev.URL, prev.Page = pageURL(c, n), &n
	}
	pg.Links = append(pg.Links, prev)
	for i := 1; i <= last; i++ {
		n := i
		pg.Links = append(pg.Links, pageLink{URL: pageURL(c, n), Label: strconv.Itoa(n), Page: &n, Active: n == p.Number})
	}
	next := pageLink{Label: "Next &raquo;"}
	if p.Number < last {
		n := p.Number + 1
		next.URL, next.Page = pageURL(c, n), &n
	}
	pg.Links = append(pg.Links, next)
	return pg
}

// pageData builds {items, pagination}; false means the page lies past the end.
func pageData(c *fiber.Ctx, items any, count int, p page, total int) (fiber.Map, bool) {
	pg := buildPagination(c, p, count, total)
	if p.Number > pg.LastPage {
		return nil, false
	}
	return fiber.Map{"items": items, "pagination": pg}, true
}

func paginated(c *fiber.Ctx, message string, items any, count int, p page, total int) error {
	data, valid := pageData(c, items, count, p, total)
	if !valid {
		return fail(c, fiber.StatusNotFound, "Invalid page.", nil)
	}
	return ok(c, message, data)
}
