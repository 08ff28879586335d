package docstore

import (
	"time"

	"github.com/utafrali/plantstore/internal/domain"
)

// The document shapes below follow the camelCase layout of the storefront's
// json-server database.

type userDoc struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	Password        string     `json:"password,omitempty"`
	Role            string     `json:"role,omitempty"`
	EmailVerified   bool       `json:"emailVerified"`
	ActivationToken string     `json:"activationToken,omitempty"`
	Website         string     `json:"website,omitempty"`
	SubscribeEmail  bool       `json:"subscribeEmail"`
	CreatedAt       time.Time  `json:"createdAt"`
	ActivatedAt     *time.Time `json:"activatedAt,omitempty"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:              u.ID,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Role:            u.Role,
		EmailVerified:   u.EmailVerified,
		ActivationToken: u.ActivationToken,
		Website:         u.Website,
		SubscribeEmail:  u.SubscribeEmail,
		CreatedAt:       u.CreatedAt,
		ActivatedAt:     u.ActivatedAt,
	}
}

func (d userDoc) toDomain() *domain.User {
	role := d.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	return &domain.User{
		ID:              d.ID,
		FullName:        d.FullName,
		Phone:           d.Phone,
		Email:           d.Email,
		PasswordHash:    d.Password,
		Role:            role,
		EmailVerified:   d.EmailVerified,
		ActivationToken: d.ActivationToken,
		Website:         d.Website,
		SubscribeEmail:  d.SubscribeEmail,
		CreatedAt:       d.CreatedAt,
		ActivatedAt:     d.ActivatedAt,
	}
}

type productDoc struct {
	ID               flexID   `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	OldPrice         int64    `json:"oldPrice,omitempty"`
	Image            string   `json:"image"`
	Images           []string `json:"images,omitempty"`
	IsNew            bool     `json:"isNew,omitempty"`
	DiscountPercent  int      `json:"discountPercent,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	FullDescription  string   `json:"fullDescription,omitempty"`
	Category         string   `json:"category,omitempty"`
	Stock            int      `json:"stock,omitempty"`
	Color            string   `json:"color,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

func (d productDoc) toDomain() domain.Product {
	return domain.Product{
		ID:               string(d.ID),
		Name:             d.Name,
		Price:            d.Price,
		OldPrice:         d.OldPrice,
		Image:            d.Image,
		Images:           d.Images,
		IsNew:            d.IsNew,
		DiscountPercent:  d.DiscountPercent,
		Rating:           d.Rating,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		FullDescription:  d.FullDescription,
		Category:         d.Category,
		Stock:            d.Stock,
		Color:            d.Color,
		Tags:             d.Tags,
	}
}

type orderItemDoc struct {
	ProductID flexID `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type orderDoc struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Items       []orderItemDoc `json:"items"`
	TotalAmount int64          `json:"totalAmount"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func newOrderDoc(o *domain.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDoc{ProductID: flexID(it.ProductID), Quantity: it.Quantity, Price: it.Price})
	}
	return orderDoc{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
	}
}

func (d orderDoc) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{ProductID: string(it.ProductID), Quantity: it.Quantity, Price: it.Price})
	}
	return domain.Order{
		ID:          d.ID,
		UserID:      d.UserID,
		Items:       items,
		TotalAmount: d.TotalAmount,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		CompletedAt: d.CompletedAt,
	}
}

type reviewDoc struct {
	ID        string    `json:"id"`
	ProductID flexID    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func newReviewDoc(r *domain.Review) reviewDoc {
	return reviewDoc{
		ID:        r.ID,
		ProductID: flexID(r.ProductID),
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:        d.ID,
		ProductID: string(d.ProductID),
		UserID:    d.UserID,
		UserName:  d.UserName,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
	}
}
