package auth

// AuthorizeMutation は要求者がリソースの所有者である場合のみ nil を返します。
// 呼び出し側はリソースの存在を確認した後、書き込みの前にこれを評価します。
func AuthorizeMutation(resourceOwnerID, requesterID string) error {
	if resourceOwnerID == "" || resourceOwnerID != requesterID {
		return ErrForbidden()
	}
	return nil
}
