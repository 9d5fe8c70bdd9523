package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is a row of user_profiles.
type Profile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID         string    `bun:"user_id" json:"user_id,omitempty"`
	DisplayName    string    `bun:"display_name" json:"display_name,omitempty"`
	Username       string    `bun:"username" json:"username,omitempty"`
	AvatarURL      string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	Bio            string    `bun:"bio" json:"bio,omitempty"`
	Location       string    `bun:"location" json:"location,omitempty"`
	WebsiteURL     string    `bun:"website_url" json:"website_url,omitempty"`
	IsVerified     bool      `bun:"is_verified" json:"is_verified,omitempty"`
	Role           string    `bun:"role" json:"role,omitempty"`
	FollowersCount int       `bun:"followers_count" json:"followers_count,omitempty"`
	FollowingCount int       `bun:"following_count" json:"following_count,omitempty"`
	PostsCount     int       `bun:"posts_count" json:"posts_count,omitempty"`
	CreatedAt      time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Memberships []*OrganizationMember `bun:"rel:has-many,join:id=user_id" json:"organizations,omitempty"`
}

// Organization is a row of organizations.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:org"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name        string    `bun:"name" json:"name,omitempty"`
	Slug        string    `bun:"slug" json:"slug,omitempty"`
	LogoURL     string    `bun:"logo_url" json:"logo_url,omitempty"`
	Description string    `bun:"description" json:"description,omitempty"`
	WebsiteURL  string    `bun:"website_url" json:"website_url,omitempty"`
	IsVerified  bool      `bun:"is_verified" json:"is_verified,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`

	Members []*OrganizationMember `bun:"rel:has-many,join:id=organization_id" json:"members,omitempty"`
}

// OrganizationMember links a profile to an organization.
type OrganizationMember struct {
	bun.BaseModel `bun:"table:organization_members,alias:om"`

	OrganizationID uuid.UUID `bun:"organization_id,pk,type:uuid" json:"organization_id"`
	UserID         uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	Role           string    `bun:"role" json:"role,omitempty"`
}

// Event is a row of events.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:ev"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Title         string    `bun:"title" json:"title,omitempty"`
	Slug          string    `bun:"slug" json:"slug,omitempty"`
	StartAt       time.Time `bun:"start_at,nullzero" json:"start_at,omitempty"`
	EndAt         time.Time `bun:"end_at,nullzero" json:"end_at,omitempty"`
	CoverImageURL string    `bun:"cover_image_url" json:"cover_image_url,omitempty"`
	Status        string    `bun:"status" json:"status,omitempty"`
	Description   string    `bun:"description" json:"description,omitempty"`
	Venue         string    `bun:"venue" json:"venue,omitempty"`
	City          string    `bun:"city" json:"city,omitempty"`
	Category      string    `bun:"category" json:"category,omitempty"`
	Visibility    string    `bun:"visibility" json:"visibility,omitempty"`
	OrganizerID   uuid.UUID `bun:"organizer_id,type:uuid" json:"organizer_id,omitempty"`
	LikesCount    int       `bun:"likes_count" json:"likes_count,omitempty"`
	CommentsCount int       `bun:"comments_count" json:"comments_count,omitempty"`
	AttendeeCount int       `bun:"attendee_count" json:"attendee_count,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`

	Organizer   *Profile      `bun:"rel:belongs-to,join:organizer_id=id" json:"organizer,omitempty"`
	TicketTiers []*TicketTier `bun:"rel:has-many,join:id=event_id" json:"ticket_tiers,omitempty"`
}

// TicketTier is a priced ticket category of an event.
type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers,alias:tt"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	EventID    uuid.UUID `bun:"event_id,type:uuid" json:"event_id,omitempty"`
	Name       string    `bun:"name" json:"name,omitempty"`
	PriceCents int64     `bun:"price_cents" json:"price_cents,omitempty"`
	Quantity   int       `bun:"quantity" json:"quantity,omitempty"`
	Sold       int       `bun:"sold" json:"sold,omitempty"`
}

// Ticket is a purchased ticket.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:tk"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	EventID     uuid.UUID `bun:"event_id,type:uuid" json:"event_id,omitempty"`
	OwnerID     uuid.UUID `bun:"owner_id,type:uuid" json:"owner_id,omitempty"`
	Status      string    `bun:"status" json:"status,omitempty"`
	TierID      uuid.UUID `bun:"tier_id,type:uuid" json:"tier_id,omitempty"`
	QRCode      string    `bun:"qr_code" json:"qr_code,omitempty"`
	PriceCents  int64     `bun:"price_cents" json:"price_cents,omitempty"`
	PurchasedAt time.Time `bun:"purchased_at,nullzero" json:"purchased_at,omitempty"`

	Event *Event      `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Tier  *TicketTier `bun:"rel:belongs-to,join:tier_id=id" json:"tier,omitempty"`
}

// Post is a row of event_posts.
type Post struct {
	bun.BaseModel `bun:"table:event_posts,alias:ep"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AuthorID      uuid.UUID `bun:"author_id,type:uuid" json:"author_id,omitempty"`
	EventID       uuid.UUID `bun:"event_id,type:uuid" json:"event_id,omitempty"`
	Body          string    `bun:"body" json:"body,omitempty"`
	MediaURL      string    `bun:"media_url" json:"media_url,omitempty"`
	MediaType     string    `bun:"media_type" json:"media_type,omitempty"`
	Visibility    string    `bun:"visibility" json:"visibility,omitempty"`
	LikesCount    int       `bun:"likes_count" json:"likes_count,omitempty"`
	CommentsCount int       `bun:"comments_count" json:"comments_count,omitempty"`
	SharesCount   int       `bun:"shares_count" json:"shares_count,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Author *Profile `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Event  *Event   `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}
