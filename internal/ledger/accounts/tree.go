package accounts

// TreeNode is an account plus its ordered children.
type TreeNode struct {
	Account  Account
	Children []*TreeNode
}

// BuildTree converts a flat account list into a forest keyed by ParentID.
// Roots and siblings keep the insertion order of the input slice. Accounts
// whose parent is absent from the input are treated as roots. Runs in O(n).
func BuildTree(accounts []Account) []*TreeNode {
	index := make(map[int64]*TreeNode, len(accounts))
	for i := range accounts {
		index[accounts[i].ID] = &TreeNode{Account: accounts[i]}
	}
	var roots []*TreeNode
	for i := range accounts {
		node := index[accounts[i].ID]
		if pid := accounts[i].ParentID; pid != nil {
			if parent, ok := index[*pid]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
