package model

// Scope はリポジトリが操作してよいレコードの範囲を表す。
// Allがtrueの場合は全件、falseの場合はOwnerIDが所有するレコードのみ。
type Scope struct {
	All     bool
	OwnerID string
}

// ScopeAll は全件を対象とするスコープを返す。
func ScopeAll() Scope {
	return Scope{All: true}
}

// ScopeOwner は指定ユーザーの所有レコードのみを対象とするスコープを返す。
func ScopeOwner(ownerID string) Scope {
	return Scope{OwnerID: ownerID}
}

// Includes は所有者IDがスコープに含まれるかを判定する。
func (s Scope) Includes(ownerID string) bool {
	return s.All || (s.OwnerID != "" && s.OwnerID == ownerID)
}
