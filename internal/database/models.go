package database

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Equipment struct {
	ID                int64              `db:"id" json:"id"`
	EquipmentID       string             `db:"equipment_id" json:"equipment_id"`
	EquipmentIDNum    int32              `db:"equipment_id_num" json:"-"`
	EquipmentType     string             `db:"equipment_type" json:"equipment_type"`
	SerialNumber      pgtype.Text        `db:"serial_number" json:"serial_number"`
	Model             pgtype.Text        `db:"model" json:"model"`
	Manufacturer      pgtype.Text        `db:"manufacturer" json:"manufacturer"`
	ManufacturingDate pgtype.Date        `db:"manufacturing_date" json:"manufacturing_date"`
	AcquisitionDate   pgtype.Date        `db:"acquisition_date" json:"acquisition_date"`
	Location          pgtype.Text        `db:"location" json:"location"`
	Cost              pgtype.Numeric     `db:"cost" json:"cost"`
	Purpose           pgtype.Text        `db:"purpose" json:"purpose"`
	Ownership         pgtype.Text        `db:"ownership" json:"ownership"`
	ComputerSubtype   pgtype.Text        `db:"computer_subtype" json:"computer_subtype"`
	CPUModel          pgtype.Text        `db:"cpu_model" json:"cpu_model"`
	CPUSpeed          pgtype.Text        `db:"cpu_speed" json:"cpu_speed"`
	OperatingSystem   pgtype.Text        `db:"operating_system" json:"operating_system"`
	RAM               pgtype.Text        `db:"ram" json:"ram"`
	Storage           pgtype.Text        `db:"storage" json:"storage"`
	VideoCard         pgtype.Text        `db:"video_card" json:"video_card"`
	DisplayResolution pgtype.Text        `db:"display_resolution" json:"display_resolution"`
	MacLAN            pgtype.Text        `db:"mac_lan" json:"mac_lan"`
	MacWLAN           pgtype.Text        `db:"mac_wlan" json:"mac_wlan"`
	CPUScore          pgtype.Int4        `db:"cpu_score" json:"cpu_score"`
	Score2D           pgtype.Int4        `db:"score_2d" json:"score_2d"`
	Score3D           pgtype.Int4        `db:"score_3d" json:"score_3d"`
	MemoryScore       pgtype.Int4        `db:"memory_score" json:"memory_score"`
	DiskScore         pgtype.Int4        `db:"disk_score" json:"disk_score"`
	OverallRating     pgtype.Int4        `db:"overall_rating" json:"overall_rating"`
	EquipmentName     pgtype.Text        `db:"equipment_name" json:"equipment_name"`
	IPAddress         pgtype.Text        `db:"ip_address" json:"ip_address"`
	AssignmentDate    pgtype.Date        `db:"assignment_date" json:"assignment_date"`
	PrimaryUser       pgtype.Text        `db:"primary_user" json:"primary_user"`
	UsageType         pgtype.Text        `db:"usage_type" json:"usage_type"`
	Status            string             `db:"status" json:"status"`
	Notes             pgtype.Text        `db:"notes" json:"notes"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
	IsDeleted         bool               `db:"is_deleted" json:"is_deleted"`
	DeletedAt         pgtype.Timestamptz `db:"deleted_at" json:"deleted_at"`
}

type AssignmentHistory struct {
	ID                    int64       `db:"id" json:"id"`
	EquipmentID           int64       `db:"equipment_id" json:"-"`
	PreviousUser          pgtype.Text `db:"previous_user" json:"previous_user"`
	PreviousUsageType     pgtype.Text `db:"previous_usage_type" json:"previous_usage_type"`
	PreviousEquipmentName pgtype.Text `db:"previous_equipment_name" json:"previous_equipment_name"`
	StartDate             pgtype.Date `db:"start_date" json:"start_date"`
	EndDate               pgtype.Date `db:"end_date" json:"end_date"`
	CreatedAt             time.Time   `db:"created_at" json:"created_at"`
}

type Software struct {
	ID              int64              `db:"id" json:"id"`
	SoftwareID      string             `db:"software_id" json:"software_id"`
	SoftwareIDNum   int32              `db:"software_id_num" json:"-"`
	Category        pgtype.Text        `db:"category" json:"category"`
	Name            string             `db:"name" json:"name"`
	Version         pgtype.Text        `db:"version" json:"version"`
	LicenseKey      pgtype.Text        `db:"license_key" json:"key"`
	Type            pgtype.Text        `db:"type" json:"type"`
	PurchaseDate    pgtype.Date        `db:"purchase_date" json:"purchase_date"`
	Purchaser       pgtype.Text        `db:"purchaser" json:"purchaser"`
	Vendor          pgtype.Text        `db:"vendor" json:"vendor"`
	Cost            pgtype.Numeric     `db:"cost" json:"cost"`
	Deployment      pgtype.Text        `db:"deployment" json:"deployment"`
	InstallLocation pgtype.Text        `db:"install_location" json:"install_location"`
	Status          pgtype.Text        `db:"status" json:"status"`
	Comments        pgtype.Text        `db:"comments" json:"comments"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
	IsDeleted       bool               `db:"is_deleted" json:"is_deleted"`
	DeletedAt       pgtype.Timestamptz `db:"deleted_at" json:"deleted_at"`
}

// Subscription is a row of the subscription_details view. Password holds the
// obfuscated form; it is never serialized directly.
type Subscription struct {
	ID                  int64              `db:"id" json:"id"`
	SubscriptionID      string             `db:"subscription_id" json:"subscription_id"`
	SubscriptionIDNum   int32              `db:"subscription_id_num" json:"-"`
	Provider            string             `db:"provider" json:"provider"`
	CategoryID          pgtype.Int8        `db:"category_id" json:"category_id"`
	SubcategoryID       pgtype.Int8        `db:"subcategory_id" json:"subcategory_id"`
	Link                pgtype.Text        `db:"link" json:"link"`
	Authentication      pgtype.Text        `db:"authentication" json:"authentication"`
	Username            pgtype.Text        `db:"username" json:"username"`
	Password            pgtype.Text        `db:"password" json:"-"`
	InLastpass          pgtype.Bool        `db:"in_lastpass" json:"in_lastpass"`
	Status              string             `db:"status" json:"status"`
	DescriptionValue    pgtype.Text        `db:"description_value" json:"description_value"`
	ValueLevel          pgtype.Text        `db:"value_level" json:"value_level"`
	CCMOwner            pgtype.Text        `db:"ccm_owner" json:"ccm_owner"`
	SubscriptionLog     pgtype.Text        `db:"subscription_log" json:"subscription_log"`
	PaymentMethod       pgtype.Text        `db:"payment_method" json:"payment_method"`
	Cost                pgtype.Text        `db:"cost" json:"cost"`
	AnnualCost          pgtype.Numeric     `db:"annual_cost" json:"annual_cost"`
	PaymentFrequency    pgtype.Text        `db:"payment_frequency" json:"payment_frequency"`
	RenewalDate         pgtype.Date        `db:"renewal_date" json:"renewal_date"`
	LastConfirmedAlive  pgtype.Date        `db:"last_confirmed_alive" json:"last_confirmed_alive"`
	MainVendorContact   pgtype.Text        `db:"main_vendor_contact" json:"main_vendor_contact"`
	SubscriberEmail     pgtype.Text        `db:"subscriber_email" json:"subscriber_email"`
	ForwardTo           pgtype.Text        `db:"forward_to" json:"forward_to"`
	EmailRouting        pgtype.Text        `db:"email_routing" json:"email_routing"`
	EmailVolumePerWeek  pgtype.Text        `db:"email_volume_per_week" json:"email_volume_per_week"`
	ActionsTodos        pgtype.Text        `db:"actions_todos" json:"actions_todos"`
	AccessLevelRequired pgtype.Text        `db:"access_level_required" json:"access_level_required"`
	Notes               pgtype.Text        `db:"notes" json:"notes"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
	IsDeleted           bool               `db:"is_deleted" json:"is_deleted"`
	DeletedAt           pgtype.Timestamptz `db:"deleted_at" json:"deleted_at"`
	CategoryName        pgtype.Text        `db:"category_name" json:"category_name"`
	SubcategoryName     pgtype.Text        `db:"subcategory_name" json:"subcategory_name"`
}

type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int32     `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Subcategory struct {
	ID           int64     `db:"id" json:"id"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int32     `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type AuditLog struct {
	ID        pgtype.UUID     `db:"id" json:"id"`
	Action    string          `db:"action" json:"action"`
	Severity  string          `db:"severity" json:"severity"`
	Resource  string          `db:"resource" json:"resource"`
	RecordID  pgtype.Text     `db:"record_id" json:"record_id"`
	ImportID  pgtype.UUID     `db:"import_id" json:"import_id"`
	RowData   json.RawMessage `db:"row_data" json:"row_data,omitempty"`
	Changes   json.RawMessage `db:"changes" json:"changes,omitempty"`
	IPAddress pgtype.Text     `db:"ip_address" json:"ip_address"`
	UserAgent pgtype.Text     `db:"user_agent" json:"user_agent"`
	Reason    pgtype.Text     `db:"reason" json:"reason"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// RecordKey identifies an existing record during duplicate detection.
type RecordKey struct {
	PublicID  string      `db:"public_id"`
	Serial    pgtype.Text `db:"serial"`
	IsDeleted bool        `db:"is_deleted"`
}
