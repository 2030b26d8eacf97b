package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	KitchenOrderStatusSent  = "SENT"
	KitchenOrderStatusReady = "READY"
	KitchenOrderStatusServe = "SERVE"
)

const (
	BillStatusClose  = "CLOSE"
	BillStatusPaid   = "PAID"
	BillStatusCredit = "CREDIT"
)

// ── Group B: Derived (never stored) ──

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOngoing   = "ONGOING"
	TableStatusClosed    = "CLOSED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleCashier = "CASHIER"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
)

const (
	PaymodeCash = "CASH"
	PaymodeBank = "BANK"
)

// ── Group D: Audit vocabulary (free text in sinks) ──

const (
	AuditEntityBill         = "BILL"
	AuditEntityTempLine     = "TEMP_TRANSACTION"
	AuditEntityKitchenOrder = "KITCHEN_ORDER"
	AuditEntityTable        = "TABLE"
)

const (
	AuditActionCreate     = "CREATE"
	AuditActionUpdate     = "UPDATE"
	AuditActionDelete     = "DELETE"
	AuditActionPaid       = "PAID"
	AuditActionCredit     = "CREDIT"
	AuditActionShift      = "SHIFT"
	AuditActionCorrection = "CORRECTION"
	AuditActionStatus     = "STATUS"
)

// DateLayout is the dd-MM-yyyy form bills are stored and searched by.
const DateLayout = "02-01-2006"
