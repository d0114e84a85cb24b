// Package content defines the entity types served by the JSON:API layer.
// Structs are inspected into metadata definitions at startup; they are
// never instantiated with data.
package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Node is the base of every content bundle.
type Node struct {
	ID       int64     `json:"drupal_internal__nid" field:"nid"`
	UUID     uuid.UUID `json:"uuid" label:"UUID"`
	Langcode string    `json:"langcode"`
	Title    string    `json:"title"`
	Status   bool      `json:"status" label:"Published"`
	Promote  bool      `json:"promote" label:"Promoted to front page"`
	Sticky   bool      `json:"sticky"`
	Created  time.Time `json:"created"`
	Changed  time.Time `json:"changed"`
	Author   int64     `json:"uid" ref:"user" label:"Authored by"`
}

// Article is the node bundle for news style content.
type Article struct {
	Node
	Body     string          `json:"body" props:"value,format,summary"`
	Tags     []int64         `json:"field_tags" ref:"taxonomy_term" label:"Tags"`
	Image    int64           `json:"field_image" ref:"file"`
	Rating   decimal.Decimal `json:"field_rating"`
	Deadline time.Time       `json:"field_deadline"`
}

// Page is the node bundle for static pages.
type Page struct {
	Node
	Body string `json:"body" props:"value,format,summary"`
}

// User is an account.
type User struct {
	ID      int64     `json:"drupal_internal__uid" field:"uid"`
	UUID    uuid.UUID `json:"uuid"`
	Name    string    `json:"name" label:"Username"`
	Mail    string    `json:"mail"`
	Status  bool      `json:"status"`
	Created time.Time `json:"created"`
	Roles   []string  `json:"roles" ref:"user_role"`
}

// UserRole is a configuration entity referenced by users.
type UserRole struct {
	ID    string `json:"drupal_internal__id" field:"id"`
	UUID  string `json:"uuid"`
	Label string `json:"label"`
}

// Term is a taxonomy term.
type Term struct {
	ID         int64     `json:"drupal_internal__tid" field:"tid"`
	UUID       uuid.UUID `json:"uuid"`
	Name       string    `json:"name"`
	Vocabulary string    `json:"vid" ref:"taxonomy_vocabulary"`
	Weight     int       `json:"weight"`
	Parent     int64     `json:"parent" ref:"taxonomy_term"`
}

// Vocabulary groups terms.
type Vocabulary struct {
	ID   string `json:"drupal_internal__vid" field:"vid"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// File is a managed file.
type File struct {
	ID       int64     `json:"drupal_internal__fid" field:"fid"`
	UUID     uuid.UUID `json:"uuid"`
	Filename string    `json:"filename"`
	URI      string    `json:"uri" props:"value,url"`
	Filesize int64     `json:"filesize"`
}
