package utils

// Find 按ID顺序找出对应的数据
// 参数：dataMap-ID->数据，data-全部数据，ids-目标ID
// 返回：ids为空时返回全部数据；否则返回按ids顺序找到的数据，以及不存在的ID
func Find[K comparable, T any](dataMap map[K]T, data []T, ids []K) (okData []T, failedIDs []K) {
	if len(ids) == 0 {
		return data, nil
	}
	okData = make([]T, 0, len(ids))
	for _, id := range ids {
		if d, ok := dataMap[id]; ok {
			okData = append(okData, d)
		} else {
			failedIDs = append(failedIDs, id)
		}
	}
	return
}
